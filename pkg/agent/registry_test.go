package agent_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/burrow/pkg/agent"
	"github.com/m-mizutani/burrow/pkg/model"
)

func TestRegistryResolveBuiltinDefault(t *testing.T) {
	registry := agent.New()

	cfg := registry.Resolve(model.DefaultAgentID)
	gt.V(t, cfg).NotNil()
	gt.Equal(t, cfg.ID, model.DefaultAgentID)
	gt.Equal(t, cfg.Name, "Default Assistant")
	gt.S(t, cfg.SystemPrompt).Contains("SOURCES:")
}

func TestRegistryResolveUnknownFallsBack(t *testing.T) {
	registry := agent.New()

	cfg := registry.Resolve("ghost-agent")
	gt.Equal(t, cfg.ID, model.DefaultAgentID)

	cfg = registry.Resolve("")
	gt.Equal(t, cfg.ID, model.DefaultAgentID)
}

func TestRegistryCreateAndResolve(t *testing.T) {
	registry := agent.New()

	gt.NoError(t, registry.Create(model.AgentConfig{
		ID:           "researcher",
		Name:         "Researcher",
		SystemPrompt: "Answer with citations only.",
	}))

	cfg := registry.Resolve("researcher")
	gt.Equal(t, cfg.ID, model.AgentID("researcher"))
	gt.Equal(t, cfg.SystemPrompt, "Answer with citations only.")
	gt.False(t, cfg.CreatedAt.IsZero())
}

func TestRegistryDuplicateID(t *testing.T) {
	registry := agent.New()

	cfg := model.AgentConfig{ID: "researcher", SystemPrompt: "prompt"}
	gt.NoError(t, registry.Create(cfg))

	err := registry.Create(cfg)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrDuplicateAgent))
}

func TestRegistryReplaceDefault(t *testing.T) {
	registry := agent.New()

	gt.NoError(t, registry.Create(model.AgentConfig{
		ID:           model.DefaultAgentID,
		Name:         "House Style",
		SystemPrompt: "Answer tersely.",
	}))

	cfg := registry.Resolve(model.DefaultAgentID)
	gt.Equal(t, cfg.Name, "House Style")

	// Unknown ids now fall back to the replacement.
	cfg = registry.Resolve("ghost-agent")
	gt.Equal(t, cfg.SystemPrompt, "Answer tersely.")

	// The replacement counts as registered.
	err := registry.Create(model.AgentConfig{ID: model.DefaultAgentID, SystemPrompt: "again"})
	gt.True(t, errors.Is(err, model.ErrDuplicateAgent))
}

func TestRegistryCreateInvalid(t *testing.T) {
	registry := agent.New()

	err := registry.Create(model.AgentConfig{ID: "", SystemPrompt: "prompt"})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidArgument))

	err = registry.Create(model.AgentConfig{ID: "empty-prompt"})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func TestRegistryListOrder(t *testing.T) {
	registry := agent.New()

	gt.NoError(t, registry.Create(model.AgentConfig{ID: "beta", SystemPrompt: "b"}))
	gt.NoError(t, registry.Create(model.AgentConfig{ID: "alpha", SystemPrompt: "a"}))

	configs := registry.List()
	gt.A(t, configs).Length(3)
	gt.Equal(t, configs[0].ID, model.DefaultAgentID)
	gt.Equal(t, configs[1].ID, model.AgentID("beta"))
	gt.Equal(t, configs[2].ID, model.AgentID("alpha"))
}

func TestRegistryResolveReturnsCopy(t *testing.T) {
	registry := agent.New()

	gt.NoError(t, registry.Create(model.AgentConfig{ID: "researcher", SystemPrompt: "original"}))

	cfg := registry.Resolve("researcher")
	cfg.SystemPrompt = "mutated"

	again := registry.Resolve("researcher")
	gt.Equal(t, again.SystemPrompt, "original")
}
