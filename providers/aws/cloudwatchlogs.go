package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
)

func (p *Provider) discoverLogGroups(ctx context.Context) ([]string, error) {
	var names []string
	var token *string
	for {
		out, err := p.logsClient.DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{NextToken: token})
		if err != nil {
			return nil, wrapErr("list log groups", err)
		}
		for _, lg := range out.LogGroups {
			if name := aws.ToString(lg.LogGroupName); p.matcher.Matches(name) {
				names = append(names, name)
			}
		}
		if token = out.NextToken; token == nil {
			return names, nil
		}
	}
}

func (p *Provider) deleteLogGroup(ctx context.Context, name string) error {
	_, err := p.logsClient.DeleteLogGroup(ctx, &cloudwatchlogs.DeleteLogGroupInput{
		LogGroupName: aws.String(name),
	})
	return wrapErr("delete log group", err)
}

// There is no describe-one call for log groups; a prefix-scoped listing
// with an exact-name comparison stands in for it.
func (p *Provider) logGroupAbsent(ctx context.Context, name string) (bool, error) {
	out, err := p.logsClient.DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{
		LogGroupNamePrefix: aws.String(name),
	})
	if err != nil {
		return false, wrapErr("list log groups", err)
	}
	for _, lg := range out.LogGroups {
		if aws.ToString(lg.LogGroupName) == name {
			return false, nil
		}
	}
	return true, nil
}
