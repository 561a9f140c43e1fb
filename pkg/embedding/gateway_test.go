package embedding_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"

	"github.com/m-mizutani/burrow/pkg/embedding"
	"github.com/m-mizutani/burrow/pkg/model"
)

type mockGemini struct {
	dim      int
	calls    int
	failures int
	shortAt  int // 1-origin call index that returns a truncated vector
}

func (m *mockGemini) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, errors.New("not implemented")
}

func (m *mockGemini) Embedding(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.failures > 0 {
		m.failures--
		return nil, errors.New("provider unavailable")
	}

	dim := m.dim
	if m.shortAt == m.calls {
		dim = m.dim - 1
	}

	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, dim)
		vectors[i][0] = float32(i + 1)
	}
	return vectors, nil
}

func newGateway(t *testing.T, mock *mockGemini) *embedding.Gateway {
	t.Helper()
	gw, err := embedding.New(t.Context(), mock, embedding.WithRetryBackoff(time.Millisecond))
	gt.NoError(t, err)
	return gw
}

func TestGatewayProbesDimension(t *testing.T) {
	mock := &mockGemini{dim: 8}
	gw := newGateway(t, mock)

	gt.Equal(t, gw.Dimension(), 8)
	gt.Equal(t, mock.calls, 1)
}

func TestGatewayEmbedOrder(t *testing.T) {
	mock := &mockGemini{dim: 4}
	gw := newGateway(t, mock)

	vectors, err := gw.Embed(t.Context(), []string{"first", "second", "third"})
	gt.NoError(t, err)
	gt.A(t, vectors).Length(3)
	for i, vec := range vectors {
		gt.A(t, vec).Length(4)
		gt.Equal(t, vec[0], float32(i+1))
	}
}

func TestGatewayEmbedEmptyInput(t *testing.T) {
	mock := &mockGemini{dim: 4}
	gw := newGateway(t, mock)
	before := mock.calls

	vectors, err := gw.Embed(t.Context(), nil)
	gt.NoError(t, err)
	gt.A(t, vectors).Length(0)
	gt.Equal(t, mock.calls, before)
}

func TestGatewayRetriesOnce(t *testing.T) {
	mock := &mockGemini{dim: 4, failures: 1}
	gw := newGateway(t, mock)
	gt.Equal(t, mock.calls, 2)

	mock.failures = 1
	vec, err := gw.EmbedOne(t.Context(), "query")
	gt.NoError(t, err)
	gt.A(t, vec).Length(4)
	gt.Equal(t, mock.calls, 4)
}

func TestGatewayUnavailableAfterRetry(t *testing.T) {
	mock := &mockGemini{dim: 4}
	gw := newGateway(t, mock)

	mock.failures = 2
	_, err := gw.EmbedOne(t.Context(), "query")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrEmbeddingUnavailable))
	gt.NotNil(t, goerr.Unwrap(err))
}

func TestGatewayDimensionMismatch(t *testing.T) {
	mock := &mockGemini{dim: 4}
	gw := newGateway(t, mock)

	mock.shortAt = mock.calls + 1
	_, err := gw.EmbedOne(t.Context(), "query")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidConfig))
}

func TestGatewayProbeFailureIsFatal(t *testing.T) {
	mock := &mockGemini{dim: 4, failures: 2}
	_, err := embedding.New(t.Context(), mock, embedding.WithRetryBackoff(time.Millisecond))
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrEmbeddingUnavailable))
}
