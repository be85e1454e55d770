package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"email-service/handler"
	"email-service/internal/config"
	"email-service/internal/integrations/paramstore"
	"email-service/internal/integrations/queue"
	"email-service/internal/repository"
	"email-service/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load[config.Intake]()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	config.SetupLogger(cfg.LogLevel)

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.TableName)
	if err != nil {
		slog.Error("failed to create inquiry store", "err", err)
		os.Exit(1)
	}
	sender, err := queue.New(awssqs.NewFromConfig(awsCfg), cfg.QueueURL)
	if err != nil {
		slog.Error("failed to create queue client", "err", err)
		os.Exit(1)
	}
	var params usecase.ParamGetter
	if cfg.AdminEmailParameter != "" {
		ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			slog.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
		params = ps
	}

	// ---- Handler ----
	submitService, err := usecase.NewSubmitService(store, sender, params, usecase.SubmitConfig{
		AdminEmail:          cfg.AdminEmail,
		AdminEmailParameter: cfg.AdminEmailParameter,
	})
	if err != nil {
		slog.Error("failed to create submit service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(submitService, handler.WithMaxBodyBytes(cfg.MaxBodyBytes))
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
