package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

type Gemini interface {
	// GenerateContent generates a response with the given model. An empty
	// model falls back to the client's default generative model.
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

	// Embedding converts texts to embedding vectors, one vector per text,
	// in input order.
	Embedding(ctx context.Context, texts []string) ([][]float32, error)
}

type GeminiClient struct {
	client              *genai.Client
	generativeModel     string
	embeddingModel      string
	embeddingDimensions int32
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingModel = model
	}
}

// WithEmbeddingDimensions sets the requested output dimensionality.
// Zero leaves the model default.
func WithEmbeddingDimensions(dim int32) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingDimensions = dim
	}
}

func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.5-flash",
		embeddingModel:  "gemini-embedding-001",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// DefaultModel returns the default generative model identifier.
func (g *GeminiClient) DefaultModel() string {
	return g.generativeModel
}

func (g *GeminiClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if model == "" {
		model = g.generativeModel
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", model))
	}
	return resp, nil
}

func (g *GeminiClient) Embedding(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	config := &genai.EmbedContentConfig{}
	if g.embeddingDimensions > 0 {
		config.OutputDimensionality = &g.embeddingDimensions
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content", goerr.V("model", g.embeddingModel))
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, goerr.New("embedding count mismatch",
			goerr.V("want", len(texts)), goerr.V("got", len(resp.Embeddings)))
	}

	vectors := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		vectors = append(vectors, e.Values)
	}
	return vectors, nil
}
