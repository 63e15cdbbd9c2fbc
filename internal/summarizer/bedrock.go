package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"mailtriage/pkg/metrics"
)

const (
	backendBedrock = "bedrock"

	DefaultBedrockModel = "anthropic.claude-haiku-4-5-20251001-v1:0"
	anthropicVersion    = "bedrock-2023-05-31"
)

// BedrockInvoker is the subset of the Bedrock runtime client we use.
type BedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockSummarizer summarizes with a Claude model on Amazon Bedrock.
type BedrockSummarizer struct {
	client  BedrockInvoker
	modelID string
	lengths Lengths
	timeout time.Duration
}

func NewBedrockSummarizer(client BedrockInvoker, modelID string, lengths Lengths, timeout time.Duration) *BedrockSummarizer {
	if modelID == "" {
		modelID = DefaultBedrockModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &BedrockSummarizer{
		client:  client,
		modelID: modelID,
		lengths: lengths.withDefaults(),
		timeout: timeout,
	}
}

type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

const promptTemplate = `Summarize the following email in %d to %d words.
Output ONLY the summary. No quotes, no preamble.

%s`

// Summarize implements Summarizer.
func (s *BedrockSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	input, err := prepareInput(text)
	if err != nil {
		return "", err
	}

	reqBody, err := json.Marshal(claudeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        s.lengths.Max,
		Messages: []claudeMessage{
			{Role: "user", Content: fmt.Sprintf(promptTemplate, s.lengths.Min, s.lengths.Max, input)},
		},
	})
	if err != nil {
		return "", modelError(backendBedrock, fmt.Errorf("marshal request: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	output, err := s.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(s.modelID),
		ContentType: aws.String("application/json"),
		Body:        reqBody,
	})
	if err != nil {
		metrics.RecordModelCallLatency(backendBedrock, "error", time.Since(start))
		return "", modelError(backendBedrock, fmt.Errorf("invoke model: %w", err))
	}
	metrics.RecordModelCallLatency(backendBedrock, "success", time.Since(start))

	var resp claudeResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return "", modelError(backendBedrock, fmt.Errorf("unmarshal response: %w", err))
	}
	for _, block := range resp.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", modelError(backendBedrock, fmt.Errorf("model returned no text"))
}
