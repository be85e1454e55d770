package infra

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/caarlos0/env/v11"
)

const (
	DefaultStackName      = "EmailServiceCdkStack"
	PlaceholderAdminEmail = "YOUR_ADMIN_EMAIL"
)

// Change the stack name with 'cdk.json/context/stackName' or '--context stackName='.
func StackName(scope constructs.Construct) string {
	return contextString(scope, "stackName", DefaultStackName)
}

// Change the notification recipient with '--context adminEmail='.
func AdminEmail(scope constructs.Construct) string {
	return contextString(scope, "adminEmail", PlaceholderAdminEmail)
}

// SenderEmail is the verified SES identity used as From; empty by default.
func SenderEmail(scope constructs.Construct) string {
	return contextString(scope, "senderEmail", "")
}

func contextString(scope constructs.Construct, key, def string) string {
	ctxValue := scope.Node().TryGetContext(jsii.String(key))
	if v, ok := ctxValue.(string); ok && v != "" {
		return v
	}
	return def
}

type DeployEnvironmentVariables struct {
	DeployAccount  string `env:"CDK_DEPLOY_ACCOUNT"`
	DeployRegion   string `env:"CDK_DEPLOY_REGION"`
	DefaultAccount string `env:"CDK_DEFAULT_ACCOUNT"`
	DefaultRegion  string `env:"CDK_DEFAULT_REGION"`
}

// Environment determines the account and region to deploy to. CDK_DEPLOY_*
// wins over the CDK_DEFAULT_* values the CLI injects from the active profile.
func Environment() (*awscdk.Environment, error) {
	var vars DeployEnvironmentVariables
	if err := env.Parse(&vars); err != nil {
		return nil, fmt.Errorf("infra: parse deploy environment: %w", err)
	}

	account, region := vars.DeployAccount, vars.DeployRegion
	if account == "" || region == "" {
		account, region = vars.DefaultAccount, vars.DefaultRegion
	}
	if account == "" && region == "" {
		// environment-agnostic stack
		return nil, nil
	}
	return &awscdk.Environment{
		Account: jsii.String(account),
		Region:  jsii.String(region),
	}, nil
}
