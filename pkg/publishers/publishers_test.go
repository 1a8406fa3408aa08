package publishers

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadRegistryEnabledFilter(t *testing.T) {
	reg, err := LoadRegistry(writeConfig(t, "publishers.yaml", `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
`))
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
	if len(reg.All()) != 2 {
		t.Fatalf("All should keep disabled entries")
	}
}

func TestNormalizedKeepsOnlyTypedBlock(t *testing.T) {
	cfg, err := PublisherConfig{
		ID:   " hook ",
		Type: " HTTP ",
		HTTP: &HTTPPublisherConfig{URL: " https://example.com/cards ", Headers: map[string]string{" ": "x", "X-A": " 1 "}},
		SQS:  &SQSPublisherConfig{QueueURL: "ignored"},
	}.normalized()
	if err != nil {
		t.Fatalf("normalized: %v", err)
	}
	if cfg.ID != "hook" || cfg.Type != TypeHTTP || !cfg.EnabledValue() {
		t.Fatalf("unexpected identity %+v", cfg)
	}
	if cfg.SQS != nil {
		t.Fatalf("blocks for other types must be dropped")
	}
	if cfg.HTTP.Method != "POST" || cfg.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("http defaults not applied: %+v", cfg.HTTP)
	}
	if len(cfg.HTTP.Headers) != 1 || cfg.HTTP.Headers["X-A"] != "1" {
		t.Fatalf("headers not cleaned: %#v", cfg.HTTP.Headers)
	}
}

func TestNormalizedDoesNotMutateInput(t *testing.T) {
	in := &SQSPublisherConfig{QueueURL: " https://q ", AWSConfig: AWSConfig{Region: " us-east-1 "}}
	if _, err := (PublisherConfig{ID: "q", Type: TypeSQS, SQS: in}).normalized(); err != nil {
		t.Fatalf("normalized: %v", err)
	}
	if in.QueueURL != " https://q " || in.Region != " us-east-1 " {
		t.Fatalf("input block was modified: %+v", in)
	}
}

func TestNormalizedRejectsInvalidEntries(t *testing.T) {
	cases := []struct {
		name string
		cfg  PublisherConfig
		want string
	}{
		{"missing id", PublisherConfig{Type: TypeHTTP}, "id is required"},
		{"missing type", PublisherConfig{ID: "x"}, "type is required"},
		{"unknown type", PublisherConfig{ID: "x", Type: "kafka"}, "unsupported type"},
		{"missing http block", PublisherConfig{ID: "h", Type: TypeHTTP}, "settings block is missing"},
		{"relative http url", PublisherConfig{ID: "h", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "/cards"}}, "absolute http(s) URL"},
		{"sqs missing uri", PublisherConfig{ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{AWSConfig: AWSConfig{Region: "us-east-1"}}}, "uri is required"},
		{"sqs missing region", PublisherConfig{ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "https://q"}}, "region is required"},
		{
			"sns half credentials",
			PublisherConfig{ID: "t", Type: TypeSNS, SNS: &SNSPublisherConfig{
				TopicARN:  "arn:aws:sns:us-east-1:123456789012:cards",
				AWSConfig: AWSConfig{Region: "us-east-1", AccessKeyID: "key"},
			}},
			"must be set together",
		},
		{"sns not an arn", PublisherConfig{ID: "t", Type: TypeSNS, SNS: &SNSPublisherConfig{TopicARN: "cards", AWSConfig: AWSConfig{Region: "us-east-1"}}}, "not an ARN"},
		{"pubsub missing topic", PublisherConfig{ID: "p", Type: TypeGCPPubSub, PubSub: &GCPQueueConfig{ProjectID: "proj"}}, "project_id and topic"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cfg.normalized()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("normalized err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestNormalizedMissingBlockIsDetectable(t *testing.T) {
	_, err := PublisherConfig{ID: "p", Type: TypeGCPPubSub}.normalized()
	if !errors.Is(err, errMissingBlock) {
		t.Fatalf("expected errMissingBlock, got %v", err)
	}
}

func TestLoadRegistryYAMLWithInlineAWS(t *testing.T) {
	reg, err := LoadRegistry(writeConfig(t, "publishers.yaml", `
publishers:
  - id: cards-queue
    type: SQS
    sqs:
      uri: " https://sqs.us-east-1.amazonaws.com/123/cards "
      region: us-east-1
      endpoint: http://localhost:4566
`))
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	cfg, ok := reg.ByID(" cards-queue ")
	if !ok {
		t.Fatalf("cards-queue not found")
	}
	if cfg.Type != TypeSQS || cfg.SQS.QueueURL != "https://sqs.us-east-1.amazonaws.com/123/cards" {
		t.Fatalf("unexpected normalized config %+v", cfg.SQS)
	}
	if cfg.SQS.Region != "us-east-1" || cfg.SQS.Endpoint != "http://localhost:4566" {
		t.Fatalf("inline aws config not decoded: %+v", cfg.SQS.AWSConfig)
	}
}

func TestLoadRegistryJSONRejectsDuplicates(t *testing.T) {
	_, err := LoadRegistry(writeConfig(t, "publishers.json", `{"publishers":[
 {"id":"h","type":"http","http":{"url":"https://a"}},
 {"id":"h","type":"http","http":{"url":"https://b"}}
]}`))
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestLoadRegistryRejectsEmptyFile(t *testing.T) {
	if _, err := LoadRegistry(writeConfig(t, "publishers.yaml", "publishers: []\n")); err == nil {
		t.Fatalf("expected error for empty publishers list")
	}
}
