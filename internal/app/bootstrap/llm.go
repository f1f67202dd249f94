package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/symptom-scout/internal/config"
	"github.com/wolfman30/symptom-scout/internal/llm"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

// ErrNoProvider is returned when no LLM provider has usable credentials.
var ErrNoProvider = errors.New("bootstrap: no llm provider configured")

// AWSConfigLoader loads the shared AWS SDK config on first use so binaries
// that never touch Bedrock or SES skip credential resolution.
type AWSConfigLoader func(ctx context.Context) (aws.Config, error)

// ResolveProvider maps LLM_PROVIDER to a concrete provider. "auto" picks the
// first provider with credentials in the order bedrock, gemini, openai.
func ResolveProvider(cfg *appconfig.Config) (string, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	switch name {
	case llm.ProviderBedrock, llm.ProviderGemini, llm.ProviderOpenAI:
		return name, nil
	case "", "auto":
		switch {
		case strings.TrimSpace(cfg.BedrockModelID) != "":
			return llm.ProviderBedrock, nil
		case strings.TrimSpace(cfg.GeminiAPIKey) != "":
			return llm.ProviderGemini, nil
		case strings.TrimSpace(cfg.OpenAIAPIKey) != "":
			return llm.ProviderOpenAI, nil
		}
		return "", ErrNoProvider
	default:
		return "", fmt.Errorf("bootstrap: unknown llm provider %q", cfg.LLMProvider)
	}
}

// BuildLLMClient wires the primary provider and, when LLM_FALLBACK_PROVIDER
// names a different one, a FallbackClient around both. The returned string is
// the primary provider name.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (llm.Client, string, error) {
	if cfg == nil {
		return nil, "", fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	primaryName, err := ResolveProvider(cfg)
	if err != nil {
		return nil, "", err
	}
	primary, err := buildProvider(ctx, primaryName, cfg, loadAWS)
	if err != nil {
		return nil, "", err
	}

	fallbackName := cfg.LLMFallbackProvider
	if fallbackName == "" || fallbackName == primaryName {
		logger.Info("llm provider configured", "provider", primaryName)
		return primary, primaryName, nil
	}
	fallback, err := buildProvider(ctx, fallbackName, cfg, loadAWS)
	if err != nil {
		logger.Warn("fallback llm provider unavailable; continuing without it",
			"provider", fallbackName,
			"error", err,
		)
		return primary, primaryName, nil
	}
	logger.Info("llm provider configured", "provider", primaryName, "fallback", fallbackName)
	return llm.NewFallbackClient(primary, fallback, logger), primaryName, nil
}

func buildProvider(ctx context.Context, name string, cfg *appconfig.Config, loadAWS AWSConfigLoader) (llm.Client, error) {
	switch name {
	case llm.ProviderBedrock:
		model := strings.TrimSpace(cfg.BedrockModelID)
		if model == "" {
			return nil, fmt.Errorf("bootstrap: BEDROCK_MODEL_ID is required for bedrock")
		}
		if loadAWS == nil {
			return nil, fmt.Errorf("bootstrap: aws config loader is required for bedrock")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		return llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), model), nil
	case llm.ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, err
		}
		return client, nil
	case llm.ProviderOpenAI:
		client, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown llm provider %q", name)
	}
}
