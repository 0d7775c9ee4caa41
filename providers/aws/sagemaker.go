package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"

	"github.com/threatdetect-io/mlsweep/internal/engine"
)

// Endpoints are recreated out-of-band by the training job with a fresh
// timestamp suffix, so discovery always lists and matches rather than
// assuming one well-known name.

func (p *Provider) discoverEndpoints(ctx context.Context) ([]string, error) {
	var names []string
	var token *string
	for {
		out, err := p.sagemakerClient.ListEndpoints(ctx, &sagemaker.ListEndpointsInput{NextToken: token})
		if err != nil {
			return nil, wrapErr("list endpoints", err)
		}
		for _, ep := range out.Endpoints {
			if name := aws.ToString(ep.EndpointName); p.matcher.Matches(name) {
				names = append(names, name)
			}
		}
		if token = out.NextToken; token == nil {
			return names, nil
		}
	}
}

func (p *Provider) deleteEndpoint(ctx context.Context, name string) error {
	_, err := p.sagemakerClient.DeleteEndpoint(ctx, &sagemaker.DeleteEndpointInput{
		EndpointName: aws.String(name),
	})
	return wrapErr("delete endpoint", err)
}

func (p *Provider) endpointAbsent(ctx context.Context, name string) (bool, error) {
	_, err := p.sagemakerClient.DescribeEndpoint(ctx, &sagemaker.DescribeEndpointInput{
		EndpointName: aws.String(name),
	})
	return absentFromDescribe("describe endpoint", err)
}

func (p *Provider) discoverEndpointConfigs(ctx context.Context) ([]string, error) {
	var names []string
	var token *string
	for {
		out, err := p.sagemakerClient.ListEndpointConfigs(ctx, &sagemaker.ListEndpointConfigsInput{NextToken: token})
		if err != nil {
			return nil, wrapErr("list endpoint configs", err)
		}
		for _, cfg := range out.EndpointConfigs {
			if name := aws.ToString(cfg.EndpointConfigName); p.matcher.Matches(name) {
				names = append(names, name)
			}
		}
		if token = out.NextToken; token == nil {
			return names, nil
		}
	}
}

func (p *Provider) deleteEndpointConfig(ctx context.Context, name string) error {
	_, err := p.sagemakerClient.DeleteEndpointConfig(ctx, &sagemaker.DeleteEndpointConfigInput{
		EndpointConfigName: aws.String(name),
	})
	return wrapErr("delete endpoint config", err)
}

func (p *Provider) endpointConfigAbsent(ctx context.Context, name string) (bool, error) {
	_, err := p.sagemakerClient.DescribeEndpointConfig(ctx, &sagemaker.DescribeEndpointConfigInput{
		EndpointConfigName: aws.String(name),
	})
	return absentFromDescribe("describe endpoint config", err)
}

func (p *Provider) discoverModels(ctx context.Context) ([]string, error) {
	var names []string
	var token *string
	for {
		out, err := p.sagemakerClient.ListModels(ctx, &sagemaker.ListModelsInput{NextToken: token})
		if err != nil {
			return nil, wrapErr("list models", err)
		}
		for _, m := range out.Models {
			if name := aws.ToString(m.ModelName); p.matcher.Matches(name) {
				names = append(names, name)
			}
		}
		if token = out.NextToken; token == nil {
			return names, nil
		}
	}
}

func (p *Provider) deleteModel(ctx context.Context, name string) error {
	_, err := p.sagemakerClient.DeleteModel(ctx, &sagemaker.DeleteModelInput{
		ModelName: aws.String(name),
	})
	return wrapErr("delete model", err)
}

func (p *Provider) modelAbsent(ctx context.Context, name string) (bool, error) {
	_, err := p.sagemakerClient.DescribeModel(ctx, &sagemaker.DescribeModelInput{
		ModelName: aws.String(name),
	})
	return absentFromDescribe("describe model", err)
}

func (p *Provider) discoverNotebooks(ctx context.Context) ([]string, error) {
	var names []string
	var token *string
	for {
		out, err := p.sagemakerClient.ListNotebookInstances(ctx, &sagemaker.ListNotebookInstancesInput{NextToken: token})
		if err != nil {
			return nil, wrapErr("list notebooks", err)
		}
		for _, nb := range out.NotebookInstances {
			if name := aws.ToString(nb.NotebookInstanceName); p.matcher.Matches(name) {
				names = append(names, name)
			}
		}
		if token = out.NextToken; token == nil {
			return names, nil
		}
	}
}

// stopNotebook transitions a notebook toward Stopped. A notebook still
// in flight is reported as a conflict so the caller's retry discipline
// awaits the transition instead of this method polling.
func (p *Provider) stopNotebook(ctx context.Context, name string) error {
	out, err := p.sagemakerClient.DescribeNotebookInstance(ctx, &sagemaker.DescribeNotebookInstanceInput{
		NotebookInstanceName: aws.String(name),
	})
	if err != nil {
		wrapped := wrapErr("describe notebook", err)
		if errors.Is(wrapped, engine.ErrNotFound) {
			return nil
		}
		return wrapped
	}

	switch out.NotebookInstanceStatus {
	case types.NotebookInstanceStatusStopped, types.NotebookInstanceStatusFailed,
		types.NotebookInstanceStatusDeleting:
		return nil
	case types.NotebookInstanceStatusInService:
		if _, err := p.sagemakerClient.StopNotebookInstance(ctx, &sagemaker.StopNotebookInstanceInput{
			NotebookInstanceName: aws.String(name),
		}); err != nil {
			return wrapErr("stop notebook", err)
		}
		return fmt.Errorf("notebook %q stop requested: %w", name, engine.ErrConflict)
	default:
		// Pending, Stopping, Updating.
		return fmt.Errorf("notebook %q in status %s: %w", name, out.NotebookInstanceStatus, engine.ErrConflict)
	}
}

func (p *Provider) deleteNotebook(ctx context.Context, name string) error {
	_, err := p.sagemakerClient.DeleteNotebookInstance(ctx, &sagemaker.DeleteNotebookInstanceInput{
		NotebookInstanceName: aws.String(name),
	})
	return wrapErr("delete notebook", err)
}

func (p *Provider) notebookAbsent(ctx context.Context, name string) (bool, error) {
	_, err := p.sagemakerClient.DescribeNotebookInstance(ctx, &sagemaker.DescribeNotebookInstanceInput{
		NotebookInstanceName: aws.String(name),
	})
	return absentFromDescribe("describe notebook", err)
}

// absentFromDescribe turns a describe result into an existence answer:
// a NotFound-class error proves absence, success proves presence, and
// anything else is unknown.
func absentFromDescribe(op string, err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	wrapped := wrapErr(op, err)
	if errors.Is(wrapped, engine.ErrNotFound) {
		return true, nil
	}
	return false, wrapped
}
