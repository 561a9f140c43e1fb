package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

type AgentID string

// DefaultAgentID is the built-in agent that always resolves, even when it
// was never explicitly registered.
const DefaultAgentID AgentID = "default"

// AgentConfig selects the behavior of a chat session: a system prompt and
// an optional generation model override. Replaced as a whole on update,
// never partially mutated.
type AgentConfig struct {
	ID            AgentID   `yaml:"id" json:"agent_id"`
	Name          string    `yaml:"name" json:"name"`
	SystemPrompt  string    `yaml:"system_prompt" json:"system_prompt"`
	ModelOverride string    `yaml:"model,omitempty" json:"model_override,omitempty"`
	CreatedAt     time.Time `yaml:"-" json:"created_at"`
}

// Validate checks if the agent configuration is valid
func (a *AgentConfig) Validate() error {
	if a.ID == "" {
		return goerr.Wrap(ErrInvalidArgument, "agent id is empty")
	}
	if a.SystemPrompt == "" {
		return goerr.Wrap(ErrInvalidArgument, "agent system prompt is empty", goerr.V("agent_id", a.ID))
	}
	return nil
}
