package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
)

// REST APIs match on their display name but every other call addresses
// them by generated ID, so discovery returns IDs.

func (p *Provider) discoverRestAPIs(ctx context.Context) ([]string, error) {
	var ids []string
	var position *string
	for {
		out, err := p.apigwClient.GetRestApis(ctx, &apigateway.GetRestApisInput{Position: position})
		if err != nil {
			return nil, wrapErr("list rest apis", err)
		}
		for _, api := range out.Items {
			if p.matcher.Matches(aws.ToString(api.Name)) {
				ids = append(ids, aws.ToString(api.Id))
			}
		}
		if position = out.Position; position == nil {
			return ids, nil
		}
	}
}

func (p *Provider) deleteRestAPI(ctx context.Context, id string) error {
	_, err := p.apigwClient.DeleteRestApi(ctx, &apigateway.DeleteRestApiInput{
		RestApiId: aws.String(id),
	})
	return wrapErr("delete rest api", err)
}

func (p *Provider) restAPIAbsent(ctx context.Context, id string) (bool, error) {
	_, err := p.apigwClient.GetRestApi(ctx, &apigateway.GetRestApiInput{
		RestApiId: aws.String(id),
	})
	return absentFromDescribe("get rest api", err)
}
