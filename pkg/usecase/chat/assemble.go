package chat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/burrow/pkg/model"
)

// Policy selects which context competes for the token budget first once the
// system prompt and query are accounted for.
type Policy string

const (
	// PolicyRelevanceFirst spends the budget on retrieved chunks (ascending
	// distance) before history turns (newest first). This is the default.
	PolicyRelevanceFirst Policy = "relevance_first"

	// PolicyRecencyFirst spends the budget on history turns before
	// retrieved chunks.
	PolicyRecencyFirst Policy = "recency_first"
)

// AssembleInput carries everything the assembler needs for one prompt.
// History is oldest-first, as supplied by the caller.
type AssembleInput struct {
	SystemPrompt string
	Retrieved    []*model.RetrievalResult
	History      []model.ConversationTurn
	Query        string
	TokenBudget  int
	Policy       Policy
}

// AssembledPrompt is a bounded prompt plus a record of what was left out.
type AssembledPrompt struct {
	// System is the agent system prompt with the knowledge context block
	// appended.
	System string

	// History holds the included turns, oldest-first, ready for the
	// generation call.
	History []model.ConversationTurn

	Query string

	// Included are the retrieved chunks that made it into the context
	// block, in ascending distance order.
	Included []*model.RetrievalResult

	DroppedSources []*model.RetrievalResult
	DroppedTurns   []model.ConversationTurn

	EstimatedTokens int
}

// Assemble builds a prompt within the token budget. The system prompt and
// the query are always included in full; retrieved chunks and history turns
// compete for the remainder per the policy. A chunk or turn that would
// exceed the budget ends its phase: entries are never truncated mid-text.
// Identical inputs always produce identical output.
func Assemble(input AssembleInput) (*AssembledPrompt, error) {
	if input.TokenBudget <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidConfig, "token budget must be positive",
			goerr.V("token_budget", input.TokenBudget))
	}

	retrieved := make([]*model.RetrievalResult, len(input.Retrieved))
	copy(retrieved, input.Retrieved)
	sort.SliceStable(retrieved, func(i, j int) bool {
		return retrieved[i].Distance < retrieved[j].Distance
	})

	// The no-context notice is charged up front: it is what the system text
	// carries when nothing gets included. The first included chunk replaces
	// it with the context header.
	noticeCost := estimateTokens(contextSeparator + noContextNotice)
	used := estimateTokens(input.SystemPrompt) + estimateTokens(input.Query) + noticeCost
	remaining := input.TokenBudget - used

	out := &AssembledPrompt{Query: input.Query}

	takeSources := func() {
		for i, r := range retrieved {
			cost := estimateTokens(contextSeparator + contextEntry(len(out.Included)+1, r))
			if len(out.Included) == 0 {
				cost += estimateTokens(contextSeparator + contextHeader) - noticeCost
			}
			if cost > remaining {
				out.DroppedSources = append(out.DroppedSources, retrieved[i:]...)
				return
			}
			out.Included = append(out.Included, r)
			remaining -= cost
			used += cost
		}
	}

	takeTurns := func() {
		var included []model.ConversationTurn
		for i := len(input.History) - 1; i >= 0; i-- {
			turn := input.History[i]
			cost := estimateTokens(turnEntry(turn))
			if cost > remaining {
				out.DroppedTurns = append(out.DroppedTurns, input.History[:i+1]...)
				break
			}
			included = append(included, turn)
			remaining -= cost
			used += cost
		}
		// Collected newest-first; the generation call wants oldest-first.
		for i := len(included) - 1; i >= 0; i-- {
			out.History = append(out.History, included[i])
		}
	}

	if input.Policy == PolicyRecencyFirst {
		takeTurns()
		takeSources()
	} else {
		takeSources()
		takeTurns()
	}

	out.System = buildSystem(input.SystemPrompt, out.Included)
	out.EstimatedTokens = used

	return out, nil
}

const (
	contextHeader    = "Relevant documents from knowledge base:"
	contextSeparator = "\n\n"
	noContextNotice  = "No relevant documents found in the knowledge base."
)

// buildSystem appends the knowledge context block to the agent prompt
func buildSystem(prompt string, included []*model.RetrievalResult) string {
	if len(included) == 0 {
		return prompt + contextSeparator + noContextNotice
	}

	parts := []string{prompt, contextHeader}
	for i, r := range included {
		parts = append(parts, contextEntry(i+1, r))
	}
	return strings.Join(parts, contextSeparator)
}

func contextEntry(position int, r *model.RetrievalResult) string {
	filename := r.Metadata.Filename
	if filename == "" {
		filename = "unknown"
	}
	chunkID := r.Metadata.ChunkID
	if chunkID == "" {
		chunkID = string(r.RecordID)
	}
	return fmt.Sprintf("%d. From %s (chunk %s): %s", position, filename, chunkID, r.Text)
}

func turnEntry(turn model.ConversationTurn) string {
	return string(turn.Role) + ": " + turn.Content
}
