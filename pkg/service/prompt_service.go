package service

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/parley-chat/parley/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// PromptService serves the prompt library and starter examples.
type PromptService struct {
	catalog models.PromptCatalog
}

// NewPromptService parses the built-in catalog. When overridePath names an
// existing file it replaces the built-in one.
func NewPromptService(overridePath string) (*PromptService, error) {
	data := defaultPrompts
	source := "embedded prompts.yaml"
	if overridePath != "" {
		b, err := os.ReadFile(overridePath)
		switch {
		case err == nil:
			data, source = b, overridePath
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read prompts %s: %w", overridePath, err)
		}
	}

	var catalog models.PromptCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	if catalog.Categories == nil {
		catalog.Categories = []models.PromptCategory{}
	}
	if catalog.Examples == nil {
		catalog.Examples = []models.PromptExample{}
	}
	for i := range catalog.Categories {
		if catalog.Categories[i].Templates == nil {
			catalog.Categories[i].Templates = []models.PromptTemplate{}
		}
	}
	return &PromptService{catalog: catalog}, nil
}

// Library returns the templates grouped by category.
func (s *PromptService) Library() []models.PromptCategory {
	return s.catalog.Categories
}

// Examples returns the starter prompts.
func (s *PromptService) Examples() []models.PromptExample {
	return s.catalog.Examples
}
