package aws

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/threatdetect-io/mlsweep/internal/engine"
)

// wrapErr translates a raw SDK error into the engine's taxonomy so the
// retry controller can classify it with errors.Is alone.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isNotFound(err):
		return fmt.Errorf("%s: %w", op, engine.ErrNotFound)
	case isConflict(err):
		return fmt.Errorf("%s: %w: %v", op, engine.ErrConflict, err)
	case isTransient(err):
		return fmt.Errorf("%s: %w: %v", op, engine.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isNotFound(err error) bool {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return false
	}
	switch ae.ErrorCode() {
	case "ResourceNotFoundException", "ResourceNotFound", "NotFoundException",
		"NotFound", "NoSuchBucket", "NoSuchKey":
		return true
	case "ValidationException":
		// SageMaker reports a missing endpoint/config/model as a
		// validation error, not a 404.
		return strings.Contains(strings.ToLower(ae.ErrorMessage()), "could not find")
	}
	return false
}

func isConflict(err error) bool {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return false
	}
	switch ae.ErrorCode() {
	case "ResourceConflictException", "ResourceInUseException", "ConflictException",
		"OperationAbortedException", "BucketNotEmpty", "DependencyViolation":
		return true
	case "ValidationException":
		// In-progress state transitions ("Cannot delete ... in status
		// Stopping") also arrive as validation errors.
		return strings.Contains(strings.ToLower(ae.ErrorMessage()), "in status")
	}
	return false
}

func isTransient(err error) bool {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "ThrottlingException", "Throttling", "TooManyRequestsException",
			"RequestLimitExceeded", "ServiceUnavailable", "ServiceUnavailableException",
			"InternalFailure", "InternalServerError", "RequestTimeout", "SlowDown":
			return true
		}
	}

	// Errors that never made it to an API error: connection resets, TLS
	// failures, client-side timeouts.
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"throttl",
		"rate exceed",
		"too many requests",
		"service unavailable",
		"connection reset",
		"connection refused",
		"timeout",
		"tls handshake",
		"temporary failure",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
