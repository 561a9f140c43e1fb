// Package embedding provides the gateway to the external embedding provider.
// The gateway discovers the provider's vector dimension once at construction
// and enforces it on every result.
package embedding

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/burrow/pkg/adapter"
	"github.com/m-mizutani/burrow/pkg/model"
)

const dimensionProbe = "dimension probe"

// Gateway converts text to embedding vectors via the configured provider.
// It is stateless after construction and safe for concurrent use.
type Gateway struct {
	gemini  adapter.Gemini
	dim     int
	timeout time.Duration
	backoff time.Duration
}

type Option func(*Gateway)

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// WithRetryBackoff sets the pause before the single retry.
func WithRetryBackoff(d time.Duration) Option {
	return func(g *Gateway) {
		g.backoff = d
	}
}

// New creates a Gateway and probes the provider for its embedding dimension.
// A probe failure is a startup error: no vectors can be stored without a
// known dimension.
func New(ctx context.Context, gemini adapter.Gemini, opts ...Option) (*Gateway, error) {
	g := &Gateway{
		gemini:  gemini,
		timeout: 30 * time.Second,
		backoff: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(g)
	}

	vectors, err := g.call(ctx, []string{dimensionProbe})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to probe embedding dimension")
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, goerr.Wrap(model.ErrInvalidConfig, "embedding provider returned an empty probe vector")
	}
	g.dim = len(vectors[0])

	return g, nil
}

// Dimension returns the fixed embedding dimension of the provider.
func (g *Gateway) Dimension() int {
	return g.dim
}

// Embed converts texts to vectors, one per input text in input order.
// An empty input returns an empty result without calling the provider.
func (g *Gateway) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := g.call(ctx, texts)
	if err != nil {
		return nil, err
	}

	for i, vec := range vectors {
		if len(vec) != g.dim {
			return nil, goerr.Wrap(model.ErrInvalidConfig, "embedding dimension mismatch",
				goerr.V("want", g.dim), goerr.V("got", len(vec)), goerr.V("index", i))
		}
	}

	return vectors, nil
}

// EmbedOne converts a single query text to a vector.
func (g *Gateway) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// call invokes the provider with a bounded timeout and exactly one retry
// after a short backoff. A second failure is surfaced as
// ErrEmbeddingUnavailable.
func (g *Gateway) call(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := g.callOnce(ctx, texts)
	if err == nil {
		return vectors, nil
	}

	select {
	case <-ctx.Done():
		return nil, goerr.Wrap(ctx.Err(), "embedding canceled")
	case <-time.After(g.backoff):
	}

	vectors, retryErr := g.callOnce(ctx, texts)
	if retryErr != nil {
		return nil, goerr.Wrap(model.ErrEmbeddingUnavailable, "embedding failed after retry",
			goerr.V("cause", retryErr.Error()), goerr.V("first_cause", err.Error()))
	}
	return vectors, nil
}

func (g *Gateway) callOnce(ctx context.Context, texts []string) ([][]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	return g.gemini.Embedding(callCtx, texts)
}
