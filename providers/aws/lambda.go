package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

func (p *Provider) discoverFunctions(ctx context.Context) ([]string, error) {
	var names []string
	var marker *string
	for {
		out, err := p.lambdaClient.ListFunctions(ctx, &lambda.ListFunctionsInput{Marker: marker})
		if err != nil {
			return nil, wrapErr("list functions", err)
		}
		for _, fn := range out.Functions {
			if name := aws.ToString(fn.FunctionName); p.matcher.Matches(name) {
				names = append(names, name)
			}
		}
		if marker = out.NextMarker; marker == nil {
			return names, nil
		}
	}
}

func (p *Provider) deleteFunction(ctx context.Context, name string) error {
	_, err := p.lambdaClient.DeleteFunction(ctx, &lambda.DeleteFunctionInput{
		FunctionName: aws.String(name),
	})
	return wrapErr("delete function", err)
}

func (p *Provider) functionAbsent(ctx context.Context, name string) (bool, error) {
	_, err := p.lambdaClient.GetFunction(ctx, &lambda.GetFunctionInput{
		FunctionName: aws.String(name),
	})
	return absentFromDescribe("get function", err)
}
