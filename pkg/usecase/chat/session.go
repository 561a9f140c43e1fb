// Package chat implements the retrieval-augmented chat pipeline: embed the
// query, retrieve nearby memories, resolve the agent, assemble a bounded
// prompt, and generate the answer.
package chat

import (
	"context"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/m-mizutani/burrow/pkg/adapter"
	"github.com/m-mizutani/burrow/pkg/agent"
	"github.com/m-mizutani/burrow/pkg/chunk"
	"github.com/m-mizutani/burrow/pkg/embedding"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/repository"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

// Stage names the steps of one chat request. Stages run strictly in order
// with no backtracking; any failure short-circuits to an error carrying the
// stage it happened in.
type Stage string

const (
	StageReceived      Stage = "received"
	StageEmbedded      Stage = "embedded"
	StageRetrieved     Stage = "retrieved"
	StageAgentResolved Stage = "agent_resolved"
	StageAssembled     Stage = "assembled"
	StageGenerated     Stage = "generated"
	StageResponded     Stage = "responded"
)

// UseCase provides the chat orchestration. Each call to Chat is an
// independent unit of work; the UseCase itself holds no per-session state.
type UseCase struct {
	repo     repository.Repository
	gateway  *embedding.Gateway
	gemini   adapter.Gemini
	registry *agent.Registry

	defaultModel string
	tokenBudget  int
	topK         int
	policy       Policy
	genTimeout   time.Duration

	chunkSize int
	overlap   int
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithDefaultModel sets the process-wide generation model used when an
// agent has no override
func WithDefaultModel(model string) Option {
	return func(uc *UseCase) {
		uc.defaultModel = model
	}
}

// WithTokenBudget sets the assembled-prompt token budget
func WithTokenBudget(budget int) Option {
	return func(uc *UseCase) {
		uc.tokenBudget = budget
	}
}

// WithTopK sets how many memories are retrieved per query
func WithTopK(k int) Option {
	return func(uc *UseCase) {
		uc.topK = k
	}
}

// WithPolicy sets the token budget allocation policy
func WithPolicy(p Policy) Option {
	return func(uc *UseCase) {
		uc.policy = p
	}
}

// WithGenerationTimeout bounds the generation call
func WithGenerationTimeout(d time.Duration) Option {
	return func(uc *UseCase) {
		uc.genTimeout = d
	}
}

// WithChunking overrides chunk sizes used when storing conversations back
// into memory
func WithChunking(size, overlap int) Option {
	return func(uc *UseCase) {
		uc.chunkSize = size
		uc.overlap = overlap
	}
}

// New creates a new chat UseCase instance
func New(repo repository.Repository, gateway *embedding.Gateway, gemini adapter.Gemini, registry *agent.Registry, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:     repo,
		gateway:  gateway,
		gemini:   gemini,
		registry: registry,

		defaultModel: "gemini-2.5-flash",
		tokenBudget:  4000,
		topK:         5,
		policy:       PolicyRelevanceFirst,
		genTimeout:   2 * time.Minute,
		chunkSize:    chunk.DefaultSize,
		overlap:      chunk.DefaultOverlap,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// ChatInput is one chat request. History carries the caller's prior turns;
// the core holds no session state between calls.
type ChatInput struct {
	AgentID model.AgentID            `json:"agent_id"`
	Message string                   `json:"message"`
	History []model.ConversationTurn `json:"history"`
}

// ChatOutput is the packaged response of one chat request
type ChatOutput struct {
	Answer    string                   `json:"answer"`
	Timestamp time.Time                `json:"timestamp"`
	Sources   []*model.RetrievalResult `json:"sources"`
	Model     string                   `json:"model"`
}

// Chat runs one request through the pipeline. Retrieval failures degrade to
// an empty context rather than failing the turn; embedding and generation
// failures are fatal for the request.
func (u *UseCase) Chat(ctx context.Context, input ChatInput) (*ChatOutput, error) {
	logger := logging.From(ctx)

	// Received
	if strings.TrimSpace(input.Message) == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "message is empty", goerr.V("stage", StageReceived))
	}

	// Embedded: without a query vector there is nothing to retrieve, so a
	// failure here aborts before any store access.
	queryVector, err := u.gateway.EmbedOne(ctx, input.Message)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query", goerr.V("stage", StageEmbedded))
	}

	// Retrieved: best-effort. Generation can still answer from the
	// conversation history alone.
	retrieved, err := u.repo.Query(ctx, queryVector, u.topK)
	if err != nil {
		logger.Warn("memory retrieval failed, continuing without context",
			"stage", StageRetrieved, "error", err)
		retrieved = nil
	}

	// AgentResolved: never fails, unknown ids fall back to the default.
	agentCfg := u.registry.Resolve(input.AgentID)

	// Assembled
	prompt, err := Assemble(AssembleInput{
		SystemPrompt: agentCfg.SystemPrompt,
		Retrieved:    retrieved,
		History:      input.History,
		Query:        input.Message,
		TokenBudget:  u.tokenBudget,
		Policy:       u.policy,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to assemble prompt", goerr.V("stage", StageAssembled))
	}

	// Generated
	modelID := agentCfg.ModelOverride
	if modelID == "" {
		modelID = u.defaultModel
	}

	answer, err := u.generate(ctx, modelID, prompt)
	if err != nil {
		return nil, goerr.Wrap(model.ErrGenerationFailed, "generation request failed",
			goerr.V("stage", StageGenerated), goerr.V("model", modelID), goerr.V("cause", err.Error()))
	}

	// Responded
	out := &ChatOutput{
		Answer:    answer,
		Timestamp: time.Now(),
		Sources:   prompt.Included,
		Model:     modelID,
	}

	u.remember(ctx, input.Message, answer, agentCfg.ID)

	return out, nil
}

// generate invokes the generation service with a bounded timeout
func (u *UseCase) generate(ctx context.Context, modelID string, prompt *AssembledPrompt) (string, error) {
	contents := make([]*genai.Content, 0, len(prompt.History)+1)
	for _, turn := range prompt.History {
		role := genai.Role(genai.RoleUser)
		if turn.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(prompt.Query, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, ""),
	}

	genCtx, cancel := context.WithTimeout(ctx, u.genTimeout)
	defer cancel()

	resp, err := u.gemini.GenerateContent(genCtx, modelID, contents, config)
	if err != nil {
		return "", err
	}

	answer := extractText(resp)
	if answer == "" {
		return "", goerr.New("empty generation response")
	}
	return answer, nil
}

// extractText joins the text parts of the first candidate
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// remember stores the finished exchange back into the memory store so later
// queries can retrieve it. Best-effort: a failure is logged and the turn
// still succeeds.
func (u *UseCase) remember(ctx context.Context, message, answer string, agentID model.AgentID) {
	logger := logging.From(ctx)
	text := "User: " + message + "\nAssistant: " + answer

	seq, err := chunk.Split(text, "", u.chunkSize, u.overlap)
	if err != nil {
		logger.Warn("failed to chunk conversation", "error", err)
		return
	}
	chunks := slices.Collect(seq)

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}

	vectors, err := u.gateway.Embed(ctx, texts)
	if err != nil {
		logger.Warn("failed to embed conversation", "error", err)
		return
	}

	now := time.Now()
	for i, c := range chunks {
		memory := &model.Memory{
			ID:        model.MemoryID(c.ID),
			Embedding: firestore.Vector32(vectors[i]),
			Text:      c.Text,
			Metadata: model.Metadata{
				Filename:  "conversation",
				ChunkID:   c.ID,
				Type:      model.SourceTypeConversation,
				AgentID:   agentID,
				Timestamp: now,
			},
			CreatedAt: now,
		}
		if err := u.repo.PutMemory(ctx, memory); err != nil {
			logger.Warn("failed to store conversation memory", "chunk_id", c.ID, "error", err)
			return
		}
	}
}
