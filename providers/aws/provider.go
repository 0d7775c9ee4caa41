// Package aws adapts the reconciler's uniform resource operations onto
// the AWS SDK, one service client per resource family. All call shapes,
// pagination, and error-code quirks stay behind this package.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/amplify"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/threatdetect-io/mlsweep/internal/catalog"
	"github.com/threatdetect-io/mlsweep/internal/engine"
)

// Config selects the region and the deployment to sweep.
type Config struct {
	Region  string
	Project string
}

// Provider implements engine.Adapter against live AWS APIs.
type Provider struct {
	matcher catalog.Matcher

	sagemakerClient *sagemaker.Client
	lambdaClient    *lambda.Client
	apigwClient     *apigateway.Client
	amplifyClient   *amplify.Client
	s3Client        *s3.Client
	logsClient      *cloudwatchlogs.Client
	stsClient       *sts.Client
}

// New loads the default credential chain for the region and builds the
// service clients.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &Provider{
		matcher:         catalog.Matcher{Project: cfg.Project},
		sagemakerClient: sagemaker.NewFromConfig(awsCfg),
		lambdaClient:    lambda.NewFromConfig(awsCfg),
		apigwClient:     apigateway.NewFromConfig(awsCfg),
		amplifyClient:   amplify.NewFromConfig(awsCfg),
		s3Client:        s3.NewFromConfig(awsCfg),
		logsClient:      cloudwatchlogs.NewFromConfig(awsCfg),
		stsClient:       sts.NewFromConfig(awsCfg),
	}, nil
}

// Preflight proves the credentials actually resolve before any deletion
// is attempted, so credential problems surface as a usage error instead
// of a half-finished run.
func (p *Provider) Preflight(ctx context.Context) error {
	if _, err := p.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err != nil {
		return fmt.Errorf("credential check failed: %w", err)
	}
	return nil
}

func (p *Provider) Discover(ctx context.Context, kind catalog.Kind) ([]string, error) {
	switch kind {
	case catalog.Endpoint:
		return p.discoverEndpoints(ctx)
	case catalog.Notebook:
		return p.discoverNotebooks(ctx)
	case catalog.EndpointConfig:
		return p.discoverEndpointConfigs(ctx)
	case catalog.Model:
		return p.discoverModels(ctx)
	case catalog.RestAPI:
		return p.discoverRestAPIs(ctx)
	case catalog.Function:
		return p.discoverFunctions(ctx)
	case catalog.StaticApp:
		return p.discoverStaticApps(ctx)
	case catalog.LogGroup:
		return p.discoverLogGroups(ctx)
	case catalog.Bucket:
		return p.discoverBuckets(ctx)
	}
	return nil, fmt.Errorf("unknown resource kind: %s", kind)
}

func (p *Provider) PrepareDelete(ctx context.Context, kind catalog.Kind, id string) error {
	switch kind {
	case catalog.Notebook:
		return p.stopNotebook(ctx, id)
	case catalog.Bucket:
		return p.emptyBucket(ctx, id)
	}
	return nil
}

func (p *Provider) Delete(ctx context.Context, kind catalog.Kind, id string) error {
	switch kind {
	case catalog.Endpoint:
		return p.deleteEndpoint(ctx, id)
	case catalog.Notebook:
		return p.deleteNotebook(ctx, id)
	case catalog.EndpointConfig:
		return p.deleteEndpointConfig(ctx, id)
	case catalog.Model:
		return p.deleteModel(ctx, id)
	case catalog.RestAPI:
		return p.deleteRestAPI(ctx, id)
	case catalog.Function:
		return p.deleteFunction(ctx, id)
	case catalog.StaticApp:
		return p.deleteStaticApp(ctx, id)
	case catalog.LogGroup:
		return p.deleteLogGroup(ctx, id)
	case catalog.Bucket:
		return p.deleteBucket(ctx, id)
	}
	return fmt.Errorf("unknown resource kind: %s", kind)
}

func (p *Provider) IsAbsent(ctx context.Context, kind catalog.Kind, id string) (bool, error) {
	switch kind {
	case catalog.Endpoint:
		return p.endpointAbsent(ctx, id)
	case catalog.Notebook:
		return p.notebookAbsent(ctx, id)
	case catalog.EndpointConfig:
		return p.endpointConfigAbsent(ctx, id)
	case catalog.Model:
		return p.modelAbsent(ctx, id)
	case catalog.RestAPI:
		return p.restAPIAbsent(ctx, id)
	case catalog.Function:
		return p.functionAbsent(ctx, id)
	case catalog.StaticApp:
		return p.staticAppAbsent(ctx, id)
	case catalog.LogGroup:
		return p.logGroupAbsent(ctx, id)
	case catalog.Bucket:
		return p.bucketAbsent(ctx, id)
	}
	return false, fmt.Errorf("unknown resource kind: %s", kind)
}

var _ engine.Adapter = (*Provider)(nil)
