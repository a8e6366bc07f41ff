package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/NicholasBelschner/Click2Leadmain/pkg/logger"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/metrics"
)

// Completer is the outbound text-generation contract the core depends on.
// The registry, parser, suggester and broker all consume this interface so
// tests can substitute deterministic stubs.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// Circuit breaker defaults, matching the provider failure profile: a few
// consecutive failures usually means the key or endpoint is dead.
const (
	breakerMaxFailures uint32 = 5
	breakerTimeout            = 30 * time.Second
	breakerInterval           = 60 * time.Second
)

// Gateway is the boundary to the remote completion service. It owns the
// retry-across-model-names fallback: each model in the client's list is
// tried once, in order, first success wins. Every call is bounded by a
// per-attempt timeout and the whole chain sits behind a circuit breaker.
type Gateway struct {
	client  Client
	models  []string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[string]
	logger  *logger.Logger
}

// NewGateway creates a gateway over the given provider client.
func NewGateway(client Client, timeout time.Duration, log *logger.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "llm:" + client.Name(),
		MaxRequests: 1,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Gateway{
		client:  client,
		models:  client.Models(),
		timeout: timeout,
		breaker: cb,
		logger:  log,
	}
}

// Complete sends the prompt as a single user message and returns the
// generated text. All failures collapse into ErrUnavailable; the caller is
// expected to fall back to deterministic templating.
func (g *Gateway) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	content, err := g.breaker.Execute(func() (string, error) {
		return g.completeWithFallback(ctx, prompt, maxTokens, temperature)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.GatewayUnavailableTotal.WithLabelValues(string(ReasonTransport)).Inc()
			return "", &UnavailableError{Reason: ReasonTransport, Err: err}
		}
		return "", err
	}
	return content, nil
}

// completeWithFallback tries each model in order. Retries are bounded to
// the fixed model list; there is no silent retry beyond it.
func (g *Gateway) completeWithFallback(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	var lastErr error
	var lastReason FailureReason

	for _, model := range g.models {
		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		start := time.Now()

		resp, err := g.client.Complete(attemptCtx, &CompletionRequest{
			Model:       model,
			Messages:    []ChatMessage{{Role: "user", Content: prompt}},
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
		cancel()

		if err == nil {
			metrics.RecordCompletion(model, "success", time.Since(start).Seconds())
			return resp.Content, nil
		}

		lastErr = err
		lastReason = classifyFailure(err)
		metrics.RecordCompletion(model, "failure", time.Since(start).Seconds())

		// "rejected" and "transport" are handled identically but logged
		// distinctly so operators can tell a bad key from a dead network.
		g.logger.Warn("completion attempt failed",
			zap.String("model", model),
			zap.String("reason", string(lastReason)),
			zap.Error(err),
		)

		if ctx.Err() != nil {
			break
		}
	}

	metrics.GatewayUnavailableTotal.WithLabelValues(string(lastReason)).Inc()
	return "", &UnavailableError{Reason: lastReason, Err: lastErr}
}
