// Package toolbar holds the tool toggle bar and the model selector shown
// next to the chat input.
package toolbar

import (
	"errors"

	"chat-sidebar/internal/models"
)

var (
	ErrUnknownTool  = errors.New("unknown tool")
	ErrUnknownModel = errors.New("unknown model")
)

// Bar keeps the enabled state of each tool. Not safe for concurrent use.
type Bar struct {
	tools   []models.Tool
	enabled map[string]bool
}

// NewBar creates a bar with each tool in its default state.
func NewBar(tools []models.Tool) *Bar {
	b := &Bar{
		tools:   append([]models.Tool(nil), tools...),
		enabled: make(map[string]bool, len(tools)),
	}
	for _, tool := range tools {
		b.enabled[tool.ID] = tool.Enabled
	}
	return b
}

// Toggle flips a tool and returns its new state.
func (b *Bar) Toggle(toolID string) (bool, error) {
	state, ok := b.enabled[toolID]
	if !ok {
		return false, ErrUnknownTool
	}
	b.enabled[toolID] = !state
	return !state, nil
}

// States returns every tool with its state, in catalog order.
func (b *Bar) States() []models.ToolState {
	states := make([]models.ToolState, 0, len(b.tools))
	for _, tool := range b.tools {
		states = append(states, models.ToolState{
			Tool:       tool,
			IsEnabled:  b.enabled[tool.ID],
			Capability: string(CapabilityFor(tool.Icon)),
		})
	}
	return states
}

// EnabledIDs returns the ids of enabled tools, in catalog order.
func (b *Bar) EnabledIDs() []string {
	ids := []string{}
	for _, tool := range b.tools {
		if b.enabled[tool.ID] {
			ids = append(ids, tool.ID)
		}
	}
	return ids
}

const noModelLabel = "Select a model"

// ModelSelector tracks the model chosen for new messages.
type ModelSelector struct {
	models   []models.AIModel
	selected *models.AIModel
}

// NewModelSelector creates a selector. defaultID may be empty or unknown,
// in which case nothing is selected.
func NewModelSelector(available []models.AIModel, defaultID string) *ModelSelector {
	s := &ModelSelector{models: append([]models.AIModel(nil), available...)}
	_ = s.Select(defaultID)
	return s
}

// Models returns the selectable models.
func (s *ModelSelector) Models() []models.AIModel {
	return s.models
}

// Select chooses the model with id.
func (s *ModelSelector) Select(id string) error {
	for i := range s.models {
		if s.models[i].ID == id {
			model := s.models[i]
			s.selected = &model
			return nil
		}
	}
	return ErrUnknownModel
}

// Selected returns the chosen model, if any.
func (s *ModelSelector) Selected() (models.AIModel, bool) {
	if s.selected == nil {
		return models.AIModel{}, false
	}
	return *s.selected, true
}

// Label is the text of the selector button.
func (s *ModelSelector) Label() string {
	if s.selected == nil || s.selected.Name == "" {
		return noModelLabel
	}
	return s.selected.Name
}
