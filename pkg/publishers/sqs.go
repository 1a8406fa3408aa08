package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type sqsTransport struct {
	queueURL string
	api      sqsAPI
}

func newSQSPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	block, err := normalizeBlock(cfg.SQS)
	if err != nil {
		return nil, fmt.Errorf("sqs publisher %q: %w", cfg.ID, err)
	}
	awsCfg, err := loadAWSConfig(ctx, block.AWSConfig)
	if err != nil {
		return nil, err
	}
	api := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if block.Endpoint != "" {
			o.BaseEndpoint = aws.String(block.Endpoint)
		}
	})
	return newSinkPublisher(cfg.ID, TypeSQS, &sqsTransport{queueURL: block.QueueURL, api: api}, log), nil
}

func (t *sqsTransport) deliver(ctx context.Context, body []byte, attrs map[string]string) (string, error) {
	out, err := t.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(t.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: stringAttributes(attrs, func(v string) types.MessageAttributeValue {
			return types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
		}),
	})
	if err != nil {
		return "", fmt.Errorf("sqs send to %s: %w", t.queueURL, err)
	}
	return aws.ToString(out.MessageId), nil
}

func (t *sqsTransport) close() error { return nil }
