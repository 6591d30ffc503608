package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/dictant/internal/config"
)

// NewBackends builds the enabled backends from configuration, preserving
// order. Providers without credentials are skipped; providers that fail to
// initialize are logged and skipped.
func NewBackends(ctx context.Context, providers []config.ProviderConfig, logger *slog.Logger) []Backend {
	log := logger.With("component", "provider_factory")

	var backends []Backend
	for _, pc := range providers {
		if !pc.Enabled() {
			log.DebugContext(ctx, "Provider disabled, no API key", "provider", pc.Name, "api_key_env", pc.APIKeyEnv)
			continue
		}

		p, err := newProvider(ctx, pc)
		if err != nil {
			log.WarnContext(ctx, "Failed to initialize provider, skipping", "provider", pc.Name, "error", err)
			continue
		}
		backends = append(backends, Backend{Provider: WithBreaker(p, logger), Timeout: pc.Timeout})
	}

	log.InfoContext(ctx, "Generation backends ready", "enabled", len(backends), "configured", len(providers))
	return backends
}

func newProvider(ctx context.Context, pc config.ProviderConfig) (Provider, error) {
	switch pc.Kind {
	case config.KindOpenAI:
		return NewOpenAIProvider(pc.Name, pc.BaseURL, pc.APIKey, pc.Model, pc.Temperature)
	case config.KindGemini:
		return NewGeminiProvider(ctx, pc.Name, pc.BaseURL, pc.APIKey, pc.Model, pc.Temperature)
	default:
		return nil, fmt.Errorf("unknown provider kind %q", pc.Kind)
	}
}
