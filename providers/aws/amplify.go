package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/amplify"
)

// Amplify apps, like REST APIs, match on name and operate by app ID.

func (p *Provider) discoverStaticApps(ctx context.Context) ([]string, error) {
	var ids []string
	var token *string
	for {
		out, err := p.amplifyClient.ListApps(ctx, &amplify.ListAppsInput{NextToken: token})
		if err != nil {
			return nil, wrapErr("list apps", err)
		}
		for _, app := range out.Apps {
			if p.matcher.Matches(aws.ToString(app.Name)) {
				ids = append(ids, aws.ToString(app.AppId))
			}
		}
		if token = out.NextToken; token == nil {
			return ids, nil
		}
	}
}

func (p *Provider) deleteStaticApp(ctx context.Context, id string) error {
	_, err := p.amplifyClient.DeleteApp(ctx, &amplify.DeleteAppInput{AppId: aws.String(id)})
	return wrapErr("delete app", err)
}

func (p *Provider) staticAppAbsent(ctx context.Context, id string) (bool, error) {
	_, err := p.amplifyClient.GetApp(ctx, &amplify.GetAppInput{AppId: aws.String(id)})
	return absentFromDescribe("get app", err)
}
