package provider

import (
	"context"
	"log/slog"

	"github.com/edgard/dictant/internal/resilience"
)

// breakerProvider skips a backend while its circuit breaker is open. In a
// single run this never trips; in serve mode it spares the scheduled jobs
// from waiting on a backend that keeps timing out.
type breakerProvider struct {
	Provider
	breaker *resilience.CircuitBreaker
}

// WithBreaker wraps p in a circuit breaker.
func WithBreaker(p Provider, logger *slog.Logger) Provider {
	return &breakerProvider{
		Provider: p,
		breaker:  resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: p.Name(), Logger: logger}),
	}
}

// Generate implements Provider.
func (b *breakerProvider) Generate(ctx context.Context, prompt string) (string, error) {
	var text string
	err := b.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		text, err = b.Provider.Generate(ctx, prompt)
		return err
	})
	return text, err
}
