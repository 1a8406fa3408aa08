package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsTransport struct {
	topicARN string
	api      snsAPI
}

func newSNSPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	block, err := normalizeBlock(cfg.SNS)
	if err != nil {
		return nil, fmt.Errorf("sns publisher %q: %w", cfg.ID, err)
	}
	awsCfg, err := loadAWSConfig(ctx, block.AWSConfig)
	if err != nil {
		return nil, err
	}
	api := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if block.Endpoint != "" {
			o.BaseEndpoint = aws.String(block.Endpoint)
		}
	})
	return newSinkPublisher(cfg.ID, TypeSNS, &snsTransport{topicARN: block.TopicARN, api: api}, log), nil
}

func (t *snsTransport) deliver(ctx context.Context, body []byte, attrs map[string]string) (string, error) {
	out, err := t.api.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(t.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: stringAttributes(attrs, func(v string) types.MessageAttributeValue {
			return types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
		}),
	})
	if err != nil {
		return "", fmt.Errorf("sns publish to %s: %w", t.topicARN, err)
	}
	return aws.ToString(out.MessageId), nil
}

func (t *snsTransport) close() error { return nil }
