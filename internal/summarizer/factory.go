package summarizer

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"mailtriage/pkg/config"
)

// New builds the Summarizer selected by cfg.Backend ("http" by default).
func New(ctx context.Context, cfg config.SummarizerConfig, logger *zap.Logger) (Summarizer, error) {
	lengths := Lengths{Min: cfg.MinLength, Max: cfg.MaxLength}

	switch cfg.Backend {
	case "", backendHTTP:
		return NewHTTPSummarizer(HTTPConfig{
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
			APIToken: cfg.APIToken,
			Lengths:  lengths,
			Timeout:  cfg.Timeout,
		}, logger), nil
	case backendBedrock:
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return NewBedrockSummarizer(bedrockruntime.NewFromConfig(awsCfg), bedrockModel(cfg.Model), lengths, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown summarizer backend %q", cfg.Backend)
	}
}

// bedrockModel drops the HTTP backend's default checkpoint, which is not a
// Bedrock model id, so that DefaultBedrockModel applies.
func bedrockModel(model string) string {
	if model == DefaultModel {
		return ""
	}
	return model
}
