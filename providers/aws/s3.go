package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// deleteBatchMax is the DeleteObjects request ceiling imposed by S3.
const deleteBatchMax = 1000

func (p *Provider) discoverBuckets(ctx context.Context) ([]string, error) {
	out, err := p.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, wrapErr("list buckets", err)
	}
	var names []string
	for _, b := range out.Buckets {
		if name := aws.ToString(b.Name); p.matcher.Matches(name) {
			names = append(names, name)
		}
	}
	return names, nil
}

// emptyBucket removes every object version and delete marker so the
// subsequent DeleteBucket does not fail with BucketNotEmpty. Versioned
// buckets keep tombstones that a plain object listing never shows.
func (p *Provider) emptyBucket(ctx context.Context, name string) error {
	var keyMarker, versionMarker *string
	for {
		out, err := p.s3Client.ListObjectVersions(ctx, &s3.ListObjectVersionsInput{
			Bucket:          aws.String(name),
			KeyMarker:       keyMarker,
			VersionIdMarker: versionMarker,
		})
		if err != nil {
			return wrapErr("list object versions", err)
		}

		var batch []types.ObjectIdentifier
		for _, v := range out.Versions {
			batch = append(batch, types.ObjectIdentifier{Key: v.Key, VersionId: v.VersionId})
		}
		for _, m := range out.DeleteMarkers {
			batch = append(batch, types.ObjectIdentifier{Key: m.Key, VersionId: m.VersionId})
		}

		for len(batch) > 0 {
			n := min(len(batch), deleteBatchMax)
			if err := p.deleteObjectBatch(ctx, name, batch[:n]); err != nil {
				return err
			}
			batch = batch[n:]
		}

		if !aws.ToBool(out.IsTruncated) {
			return nil
		}
		keyMarker = out.NextKeyMarker
		versionMarker = out.NextVersionIdMarker
	}
}

func (p *Provider) deleteObjectBatch(ctx context.Context, bucket string, objects []types.ObjectIdentifier) error {
	out, err := p.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return wrapErr("delete objects", err)
	}
	if len(out.Errors) > 0 {
		// Per-key failures arrive in the response body, not as an API
		// error. Re-wrap the first one so classification still applies.
		first := out.Errors[0]
		return wrapErr("delete object "+aws.ToString(first.Key), &smithy.GenericAPIError{
			Code:    aws.ToString(first.Code),
			Message: aws.ToString(first.Message),
		})
	}
	return nil
}

func (p *Provider) deleteBucket(ctx context.Context, name string) error {
	_, err := p.s3Client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(name)})
	return wrapErr("delete bucket", err)
}

func (p *Provider) bucketAbsent(ctx context.Context, name string) (bool, error) {
	_, err := p.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)})
	return absentFromDescribe("head bucket", err)
}
