package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Intake is the environment of the function behind POST /inquiries.
type Intake struct {
	TableName           string `env:"INQUIRY_TABLE_NAME,required" validate:"required"`
	QueueURL            string `env:"INQUIRY_PROCESSING_QUEUE_URL,required" validate:"required,url"`
	AdminEmail          string `env:"ADMIN_EMAIL,required" validate:"required"`
	AdminEmailParameter string `env:"ADMIN_EMAIL_PARAMETER"`
	MaxBodyBytes        int    `env:"MAX_BODY_BYTES" envDefault:"16384" validate:"gt=0"`
	LogLevel            string `env:"LOG_LEVEL" envDefault:"INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// Processor is the environment of the queue consumer.
type Processor struct {
	TableName   string `env:"INQUIRY_TABLE_NAME,required" validate:"required"`
	SenderEmail string `env:"SENDER_EMAIL"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// Load parses T from the process environment and validates it.
func Load[T any]() (T, error) {
	var cfg T
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}
