// Package ai wraps the generative text provider behind a rate-governed
// gateway that never panics or returns bare errors: every call yields a Result.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tonica-music/catalog/internal/shared"
)

// ErrNotInitialized is returned when the gateway lacks a credential or model.
var ErrNotInitialized = errors.New("ai: gateway not initialized")

// Options holds sampling parameters. Zero values defer to the provider default.
type Options struct {
	Temperature float32
	MaxTokens   int32
	TopP        float32
	TopK        int32
}

// Provider is the single capability the gateway needs from a model vendor.
type Provider interface {
	GenerateText(ctx context.Context, model, prompt string, opts Options) (string, error)
}

// Limiter suspends the caller until a request slot is available.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Config is built once at start-up and read-only afterwards.
type Config struct {
	APIKey            string
	Model             string
	RequestsPerMinute int
	Window            time.Duration
}

// Validate fails fast on a missing credential or model.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: missing api key", ErrNotInitialized)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: missing model", ErrNotInitialized)
	}
	return nil
}

// Result is the uniform envelope of a generation call.
type Result struct {
	Success    bool
	Text       string
	Err        error
	TokensUsed int
	Elapsed    time.Duration
}

// Status describes the gateway for health endpoints.
type Status struct {
	Initialized bool      `json:"initialized"`
	Model       string    `json:"model"`
	Timestamp   time.Time `json:"timestamp"`
}

// Gateway governs and times calls to a Provider.
type Gateway struct {
	provider Provider
	limiter  Limiter
	model    string
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time
}

// NewGateway validates cfg and returns a ready gateway. A nil limiter disables governing.
func NewGateway(cfg Config, provider Provider, limiter Limiter, logger *slog.Logger, metrics *Metrics) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: missing provider", ErrNotInitialized)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		provider: provider,
		limiter:  limiter,
		model:    cfg.Model,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}, nil
}

// Generate runs one completion. Failures are reported in the Result, never panicked.
func (g *Gateway) Generate(ctx context.Context, prompt string, opts Options) Result {
	if g == nil || g.provider == nil {
		return Result{Err: ErrNotInitialized}
	}
	if g.limiter != nil {
		waitStart := g.now()
		if err := g.limiter.Wait(ctx); err != nil {
			g.metrics.observe("governor", 0)
			return Result{Err: fmt.Errorf("%w: rate governor: %v", shared.ErrAICallFailed, err)}
		}
		g.metrics.observeWait(g.now().Sub(waitStart))
	}

	start := g.now()
	text, err := g.provider.GenerateText(ctx, g.model, prompt, opts)
	elapsed := g.now().Sub(start)
	if err != nil {
		g.logger.Error("ai generation failed", slog.Any("error", err), slog.Duration("elapsed", elapsed))
		g.metrics.observe("error", elapsed)
		return Result{Err: fmt.Errorf("%w: %v", shared.ErrAICallFailed, err), Elapsed: elapsed}
	}
	if strings.TrimSpace(text) == "" {
		g.metrics.observe("empty", elapsed)
		return Result{Err: fmt.Errorf("%w: empty response", shared.ErrAICallFailed), Elapsed: elapsed}
	}
	g.metrics.observe("success", elapsed)
	return Result{Success: true, Text: text, TokensUsed: EstimateTokens(text), Elapsed: elapsed}
}

// Status reports whether the gateway is usable.
func (g *Gateway) Status() Status {
	st := Status{Model: "not initialized", Timestamp: time.Now().UTC()}
	if g != nil && g.provider != nil {
		st.Initialized = true
		st.Model = g.model
	}
	return st
}

// EstimateTokens approximates usage as one token per four characters of output.
// It is not a billing figure.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
