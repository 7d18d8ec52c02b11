package models

// Tool is an assistant capability the user can switch on or off.
type Tool struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Icon        string `yaml:"icon" json:"icon"`
	Description string `yaml:"description" json:"description,omitempty"`
	Enabled     bool   `yaml:"enabled" json:"-"`
}

// ToolState pairs a tool with its current toggle state.
type ToolState struct {
	Tool       Tool   `json:"tool"`
	IsEnabled  bool   `json:"is_enabled"`
	Capability string `json:"capability"`
}

// AIModel is a selectable language model.
type AIModel struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Provider string `yaml:"provider" json:"provider,omitempty"`
}
