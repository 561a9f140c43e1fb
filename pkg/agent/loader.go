package agent

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/m-mizutani/burrow/pkg/model"
)

type agentsFile struct {
	Agents []model.AgentConfig `yaml:"agents"`
}

// LoadFile reads agent definitions from a YAML file:
//
//	agents:
//	  - id: researcher
//	    name: Researcher
//	    system_prompt: |
//	      Answer with citations only.
//	    model: gemini-2.5-pro
func LoadFile(path string) ([]model.AgentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read agents file", goerr.V("path", path))
	}

	var file agentsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse agents file", goerr.V("path", path))
	}

	seen := make(map[model.AgentID]struct{}, len(file.Agents))
	for i := range file.Agents {
		cfg := &file.Agents[i]
		if err := cfg.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid agent definition", goerr.V("path", path), goerr.V("index", i))
		}
		if _, ok := seen[cfg.ID]; ok {
			return nil, goerr.Wrap(model.ErrDuplicateAgent, "duplicate agent id in file",
				goerr.V("path", path), goerr.V("agent_id", cfg.ID))
		}
		seen[cfg.ID] = struct{}{}
	}

	return file.Agents, nil
}
