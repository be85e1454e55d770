package main

import (
	"log"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"go.uber.org/zap"

	"email-service/infra"
)

func main() {
	defer jsii.Close()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	env, err := infra.Environment()
	if err != nil {
		logger.Fatal("failed to resolve deploy environment", zap.Error(err))
	}

	app := awscdk.NewApp(nil)

	infra.NewEmailServiceStack(app, infra.StackName(app), &infra.EmailServiceStackProps{
		StackProps: awscdk.StackProps{
			Env:         env,
			Description: jsii.String("Inquiry intake API, processing queue and notification mailer"),
		},
		AdminEmail:    infra.AdminEmail(app),
		SenderEmail:   infra.SenderEmail(app),
		IntakeCode:    infra.GoFunctionCode("./cmd/intake"),
		ProcessorCode: infra.GoFunctionCode("./cmd/processor"),
	})

	app.Synth(nil)
}
