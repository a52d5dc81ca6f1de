package ai

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/tonica-music/catalog/internal/shared"
)

type stubProvider struct {
	mu      sync.Mutex
	calls   []Options
	models  []string
	respond func(prompt string) (string, error)
}

func (p *stubProvider) GenerateText(ctx context.Context, model, prompt string, opts Options) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, opts)
	p.models = append(p.models, model)
	p.mu.Unlock()
	return p.respond(prompt)
}

type countingLimiter struct {
	waits int
	err   error
}

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.waits++
	return l.err
}

func testConfig() Config {
	return Config{APIKey: "key", Model: "gemini-1.5-flash", RequestsPerMinute: 10}
}

func TestNewGatewayFailsFastWithoutCredentials(t *testing.T) {
	provider := &stubProvider{respond: func(string) (string, error) { return "ok", nil }}

	_, err := NewGateway(Config{Model: "m"}, provider, nil, nil, nil)
	require.ErrorIs(t, err, ErrNotInitialized)

	_, err = NewGateway(Config{APIKey: "k"}, provider, nil, nil, nil)
	require.ErrorIs(t, err, ErrNotInitialized)

	_, err = NewGateway(testConfig(), nil, nil, nil, nil)
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestUninitializedGatewayReportsError(t *testing.T) {
	var g *Gateway
	res := g.Generate(context.Background(), "hi", Options{})
	require.False(t, res.Success)
	require.ErrorIs(t, res.Err, ErrNotInitialized)
	require.False(t, g.Status().Initialized)
}

func TestGenerateSuccessEnvelope(t *testing.T) {
	provider := &stubProvider{respond: func(string) (string, error) { return "abcdefghi", nil }}
	limiter := &countingLimiter{}
	g, err := NewGateway(testConfig(), provider, limiter, nil, NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)

	opts := Options{Temperature: 0.3, MaxTokens: 512, TopP: 0.9, TopK: 40}
	res := g.Generate(context.Background(), "prompt", opts)
	require.True(t, res.Success)
	require.NoError(t, res.Err)
	require.Equal(t, "abcdefghi", res.Text)
	require.Equal(t, 3, res.TokensUsed)
	require.Equal(t, 1, limiter.waits)
	require.Equal(t, []Options{opts}, provider.calls)
	require.Equal(t, []string{"gemini-1.5-flash"}, provider.models)

	st := g.Status()
	require.True(t, st.Initialized)
	require.Equal(t, "gemini-1.5-flash", st.Model)
}

func TestGenerateCapturesProviderFailure(t *testing.T) {
	provider := &stubProvider{respond: func(string) (string, error) { return "", errors.New("quota exceeded") }}
	g, err := NewGateway(testConfig(), provider, nil, nil, nil)
	require.NoError(t, err)

	res := g.Generate(context.Background(), "prompt", Options{})
	require.False(t, res.Success)
	require.ErrorIs(t, res.Err, shared.ErrAICallFailed)
	require.Contains(t, res.Err.Error(), "quota exceeded")
}

func TestGenerateTreatsBlankTextAsFailure(t *testing.T) {
	provider := &stubProvider{respond: func(string) (string, error) { return "  \n", nil }}
	g, err := NewGateway(testConfig(), provider, nil, nil, nil)
	require.NoError(t, err)

	res := g.Generate(context.Background(), "prompt", Options{})
	require.False(t, res.Success)
	require.ErrorIs(t, res.Err, shared.ErrAICallFailed)
}

func TestGenerateReportsGovernorCancellation(t *testing.T) {
	provider := &stubProvider{respond: func(string) (string, error) { return "x", nil }}
	g, err := NewGateway(testConfig(), provider, &countingLimiter{err: context.Canceled}, nil, nil)
	require.NoError(t, err)

	res := g.Generate(context.Background(), "prompt", Options{})
	require.False(t, res.Success)
	require.ErrorIs(t, res.Err, shared.ErrAICallFailed)
	require.Empty(t, provider.calls)
}

func TestEstimateTokens(t *testing.T) {
	require.Equal(t, 0, EstimateTokens(""))
	require.Equal(t, 1, EstimateTokens("a"))
	require.Equal(t, 1, EstimateTokens("abcd"))
	require.Equal(t, 2, EstimateTokens("abcde"))
}
