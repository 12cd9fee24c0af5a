package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-video-intake/internal/config"
	"github.com/go-video-intake/internal/domain"
	"github.com/go-video-intake/internal/infrastructure/awsconf"
)

// PublishAPI is the slice of the SNS client the alert publisher needs.
type PublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// AlertPublisher sends high-severity security events to an SNS topic.
type AlertPublisher struct {
	client   PublishAPI
	topicARN string
}

// NewAlertPublisher builds an SNS client for cfg.SecurityAlertTopicARN.
func NewAlertPublisher(ctx context.Context, cfg *config.Config) (*AlertPublisher, error) {
	if cfg.SecurityAlertTopicARN == "" {
		return nil, fmt.Errorf("SECURITY_ALERT_TOPIC_ARN not set")
	}
	awsCfg, err := awsconf.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		o.BaseEndpoint = awsconf.Endpoint(cfg)
	})
	return NewAlertPublisherWithClient(client, cfg.SecurityAlertTopicARN), nil
}

func NewAlertPublisherWithClient(client PublishAPI, topicARN string) *AlertPublisher {
	return &AlertPublisher{client: client, topicARN: topicARN}
}

func (p *AlertPublisher) Name() string { return "sns" }

// Publish sends ev as a JSON message; type and severity are message attributes
// so subscriptions can filter on them.
func (p *AlertPublisher) Publish(ctx context.Context, ev domain.SecurityEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal security event: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String("Security alert: " + ev.Type),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"type":     {DataType: aws.String("String"), StringValue: aws.String(ev.Type)},
			"severity": {DataType: aws.String("String"), StringValue: aws.String(string(ev.Severity))},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
