package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awssesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"

	"email-service/handler"
	"email-service/internal/config"
	"email-service/internal/integrations/mailer"
	"email-service/internal/repository"
	"email-service/internal/usecase"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load[config.Processor]()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	config.SetupLogger(cfg.LogLevel)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.TableName)
	if err != nil {
		slog.Error("failed to create inquiry store", "err", err)
		os.Exit(1)
	}
	sesClient, err := mailer.New(awssesv2.NewFromConfig(awsCfg))
	if err != nil {
		slog.Error("failed to create SES client", "err", err)
		os.Exit(1)
	}
	renderer, err := usecase.NewNotificationRenderer()
	if err != nil {
		slog.Error("failed to parse notification templates", "err", err)
		os.Exit(1)
	}

	processService, err := usecase.NewProcessService(store, sesClient, renderer, cfg.SenderEmail)
	if err != nil {
		slog.Error("failed to create process service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewQueueHandler(processService)
	if err != nil {
		slog.Error("failed to create queue handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
