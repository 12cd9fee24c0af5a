package s3infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-video-intake/internal/config"
	"github.com/go-video-intake/internal/domain"
	"github.com/go-video-intake/internal/infrastructure/awsconf"
)

const archivePrefix = "security-events"

// PutObjectAPI is the slice of the S3 client the archive needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// EventArchive stores high-severity security events as JSON objects,
// one object per event, partitioned by UTC day.
type EventArchive struct {
	client PutObjectAPI
	bucket string
}

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsconf.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ep := awsconf.Endpoint(cfg); ep != nil {
			o.BaseEndpoint = ep
			o.UsePathStyle = true
		}
	}), nil
}

// NewEventArchive creates an EventArchive with the given S3 client and bucket name.
func NewEventArchive(client PutObjectAPI, bucket string) *EventArchive {
	return &EventArchive{client: client, bucket: bucket}
}

func (a *EventArchive) Name() string { return "s3" }

// Publish writes ev under security-events/YYYY/MM/DD/<event id>.json.
func (a *EventArchive) Publish(ctx context.Context, ev domain.SecurityEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal security event: %w", err)
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(objectKey(ev)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

func objectKey(ev domain.SecurityEvent) string {
	return fmt.Sprintf("%s/%s/%s.json", archivePrefix, ev.Timestamp.UTC().Format("2006/01/02"), ev.ID)
}
