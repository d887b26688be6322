package service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog"
)

// SMSSender delivers text messages to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// SNSSender publishes SMS through AWS SNS.
type SNSSender struct {
	client *sns.Client
}

func NewSNSSender(ctx context.Context, region string) (*SNSSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SNSSender{client: sns.NewFromConfig(awsCfg)}, nil
}

func (s *SNSSender) SendSMS(ctx context.Context, to, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("publish sms: %w", err)
	}
	return nil
}

// LogSMSSender stands in for SNS when SMS delivery is disabled. The message
// body carries the code, so it only appears at debug level.
type LogSMSSender struct {
	logger zerolog.Logger
}

func NewLogSMSSender(logger zerolog.Logger) *LogSMSSender {
	return &LogSMSSender{logger: logger}
}

func (s *LogSMSSender) SendSMS(_ context.Context, to, message string) error {
	s.logger.Info().Str("to", to).Msg("sms delivery disabled, message not sent")
	s.logger.Debug().Str("to", to).Str("message", message).Msg("sms body")
	return nil
}
