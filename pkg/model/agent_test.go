package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/burrow/pkg/model"
)

func TestAgentConfigValidate(t *testing.T) {
	valid := model.AgentConfig{ID: "researcher", SystemPrompt: "Answer with citations."}
	gt.NoError(t, valid.Validate())

	missingID := model.AgentConfig{SystemPrompt: "prompt"}
	gt.True(t, errors.Is(missingID.Validate(), model.ErrInvalidArgument))

	missingPrompt := model.AgentConfig{ID: "researcher"}
	gt.True(t, errors.Is(missingPrompt.Validate(), model.ErrInvalidArgument))
}

func TestSourceTypeValidate(t *testing.T) {
	gt.NoError(t, model.SourceTypeDocument.Validate())
	gt.NoError(t, model.SourceTypeConversation.Validate())
	gt.Error(t, model.SourceType("webpage").Validate())
	gt.Error(t, model.SourceType("").Validate())
}

func TestNewMemoryID(t *testing.T) {
	a := model.NewMemoryID()
	b := model.NewMemoryID()
	gt.NotEqual(t, a, "")
	gt.NotEqual(t, a, b)
}
