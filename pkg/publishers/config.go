package publishers

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Supported publisher types.
const (
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeGCPPubSub = "gcp_pubsub"
	TypeHTTP      = "http"
)

const (
	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// PublisherConfig is one entry of the publishers file. Only the block named
// by Type is read; the others are dropped during normalization.
type PublisherConfig struct {
	ID      string               `json:"id" yaml:"id"`
	Type    string               `json:"type" yaml:"type"`
	Enabled *bool                `json:"enabled" yaml:"enabled"`
	SQS     *SQSPublisherConfig  `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig  `json:"sns" yaml:"sns"`
	PubSub  *GCPQueueConfig      `json:"gcp_pubsub" yaml:"gcp_pubsub"`
	HTTP    *HTTPPublisherConfig `json:"http" yaml:"http"`
}

// EnabledValue returns the enabled flag, defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// settings is implemented by every per-type block.
type settings interface {
	normalize()
	validate() error
}

var errMissingBlock = errors.New("settings block is missing")

// normalizeBlock copies block, normalizes the copy and validates it.
func normalizeBlock[T any, P interface {
	*T
	settings
}](block *T) (*T, error) {
	if block == nil {
		return nil, errMissingBlock
	}
	c := *block
	P(&c).normalize()
	if err := P(&c).validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// normalized returns a trimmed copy of cfg that keeps only the block for its
// type, or an error describing why the entry cannot be built.
func (cfg PublisherConfig) normalized() (PublisherConfig, error) {
	out := PublisherConfig{
		ID:      strings.TrimSpace(cfg.ID),
		Type:    strings.ToLower(strings.TrimSpace(cfg.Type)),
		Enabled: cfg.Enabled,
	}
	if out.Enabled == nil {
		enabled := true
		out.Enabled = &enabled
	}
	if out.ID == "" {
		return out, errors.New("id is required")
	}

	var err error
	switch out.Type {
	case "":
		return out, fmt.Errorf("publisher %q: type is required", out.ID)
	case TypeSQS:
		out.SQS, err = normalizeBlock(cfg.SQS)
	case TypeSNS:
		out.SNS, err = normalizeBlock(cfg.SNS)
	case TypeGCPPubSub:
		out.PubSub, err = normalizeBlock(cfg.PubSub)
	case TypeHTTP:
		out.HTTP, err = normalizeBlock(cfg.HTTP)
	default:
		return out, fmt.Errorf("publisher %q: unsupported type %q", out.ID, out.Type)
	}
	if err != nil {
		return out, fmt.Errorf("publisher %q %s: %w", out.ID, out.Type, err)
	}
	return out, nil
}

// AWSConfig holds the settings shared by AWS publishers. Empty credentials
// fall back to the SDK default chain.
type AWSConfig struct {
	Region          string `json:"region" yaml:"region"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

func (a *AWSConfig) normalize() {
	for _, f := range []*string{&a.Region, &a.Endpoint, &a.AccessKeyID, &a.SecretAccessKey} {
		*f = strings.TrimSpace(*f)
	}
}

func (a *AWSConfig) validate() error {
	if a.Region == "" {
		return errors.New("region is required")
	}
	if (a.AccessKeyID == "") != (a.SecretAccessKey == "") {
		return errors.New("access_key_id and secret_access_key must be set together")
	}
	return nil
}

// SQSPublisherConfig targets one SQS queue.
type SQSPublisherConfig struct {
	QueueURL  string `json:"uri" yaml:"uri"`
	AWSConfig `yaml:",inline"`
}

func (c *SQSPublisherConfig) normalize() {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.AWSConfig.normalize()
}

func (c *SQSPublisherConfig) validate() error {
	if c.QueueURL == "" {
		return errors.New("uri is required")
	}
	return c.AWSConfig.validate()
}

// SNSPublisherConfig targets one SNS topic.
type SNSPublisherConfig struct {
	TopicARN  string `json:"topic_arn" yaml:"topic_arn"`
	AWSConfig `yaml:",inline"`
}

func (c *SNSPublisherConfig) normalize() {
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.AWSConfig.normalize()
}

func (c *SNSPublisherConfig) validate() error {
	if !strings.HasPrefix(c.TopicARN, "arn:") {
		return fmt.Errorf("topic_arn %q is not an ARN", c.TopicARN)
	}
	return c.AWSConfig.validate()
}

// GCPQueueConfig targets one Pub/Sub topic.
type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

func (c *GCPQueueConfig) normalize() {
	for _, f := range []*string{&c.ProjectID, &c.Topic, &c.CredentialsFile, &c.Endpoint} {
		*f = strings.TrimSpace(*f)
	}
}

func (c *GCPQueueConfig) validate() error {
	if c.ProjectID == "" || c.Topic == "" {
		return errors.New("project_id and topic are required")
	}
	return nil
}

// HTTPPublisherConfig posts events to a webhook.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

func (c *HTTPPublisherConfig) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = httpDefaultMethod
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = httpDefaultTimeoutSeconds
	}

	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}
	c.Headers = nil
	if len(headers) > 0 {
		c.Headers = headers
	}
}

func (c *HTTPPublisherConfig) validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("url %q must be an absolute http(s) URL", c.URL)
	}
	return nil
}
