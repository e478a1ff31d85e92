package models

// PromptTemplate is one reusable prompt in the library.
type PromptTemplate struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Prompt      string   `json:"prompt" yaml:"prompt"`
	Tags        []string `json:"tags,omitempty" yaml:"tags"`
}

// PromptCategory groups templates for display.
type PromptCategory struct {
	ID        string           `json:"id" yaml:"id"`
	Name      string           `json:"name" yaml:"name"`
	Templates []PromptTemplate `json:"templates" yaml:"templates"`
}

// PromptExample is a starter prompt shown on an empty conversation.
type PromptExample struct {
	Title  string `json:"title" yaml:"title"`
	Prompt string `json:"prompt" yaml:"prompt"`
	Icon   string `json:"icon,omitempty" yaml:"icon"`
}

// PromptCatalog is the parsed prompts file.
type PromptCatalog struct {
	Categories []PromptCategory `json:"categories" yaml:"categories"`
	Examples   []PromptExample  `json:"examples" yaml:"examples"`
}
