// Package agent manages the configurations that select chat behavior.
package agent

import (
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/burrow/pkg/model"
)

const defaultSystemPrompt = `You are a helpful private assistant. Use only explicitly provided documents and knowledge from the private vector store to answer user queries. If the information is missing, say you don't know and ask clarifying questions. When you include facts from documents, annotate each answer with a "SOURCES:" section listing the filename and chunk id used.`

// builtinDefault is the fallback configuration for the "default" agent id.
// An explicit registration of "default" replaces it.
func builtinDefault() *model.AgentConfig {
	return &model.AgentConfig{
		ID:           model.DefaultAgentID,
		Name:         "Default Assistant",
		SystemPrompt: defaultSystemPrompt,
	}
}

// Registry maps agent ids to configurations. Resolution never fails: unknown
// ids fall back to the built-in default so a chat request is never rejected
// for an unrecognized agent selection.
//
// Registry is safe for concurrent use; resolution is expected to be far more
// frequent than creation.
type Registry struct {
	mu     sync.Mutex
	agents map[model.AgentID]*model.AgentConfig
	order  []model.AgentID
}

// New creates a Registry holding only the built-in default agent
func New() *Registry {
	return &Registry{
		agents: make(map[model.AgentID]*model.AgentConfig),
	}
}

// Create registers a new agent. Registering an id twice fails with
// ErrDuplicateAgent; the built-in default does not count as registered, so
// "default" can be explicitly replaced exactly once.
func (r *Registry) Create(cfg model.AgentConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[cfg.ID]; ok {
		return goerr.Wrap(model.ErrDuplicateAgent, "agent id is taken", goerr.V("agent_id", cfg.ID))
	}

	r.agents[cfg.ID] = &cfg
	if cfg.ID != model.DefaultAgentID {
		r.order = append(r.order, cfg.ID)
	}
	return nil
}

// Resolve returns the configuration for id, falling back to the default
// agent for unknown or empty ids. The returned config is a copy.
func (r *Registry) Resolve(id model.AgentID) *model.AgentConfig {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg, ok := r.agents[id]; ok {
		c := *cfg
		return &c
	}
	if cfg, ok := r.agents[model.DefaultAgentID]; ok {
		c := *cfg
		return &c
	}
	return builtinDefault()
}

// List returns all agents, the default first, then registration order.
func (r *Registry) List() []*model.AgentConfig {
	r.mu.Lock()
	defer r.mu.Unlock()

	configs := make([]*model.AgentConfig, 0, len(r.order)+1)

	if cfg, ok := r.agents[model.DefaultAgentID]; ok {
		c := *cfg
		configs = append(configs, &c)
	} else {
		configs = append(configs, builtinDefault())
	}

	for _, id := range r.order {
		c := *r.agents[id]
		configs = append(configs, &c)
	}
	return configs
}
