package synthesis

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

// QuestionPlaceholder marks where the user question goes in a prompt template.
const QuestionPlaceholder = "{user_question}"

//go:embed base_prompt.txt
var defaultTemplate string

// PromptContext is the full instruction sent before any reflection.
type PromptContext struct {
	Question string
	Text     string
}

type PromptTemplate struct {
	text string
}

func DefaultPromptTemplate() PromptTemplate {
	return PromptTemplate{text: defaultTemplate}
}

func NewPromptTemplate(text string) (PromptTemplate, error) {
	if strings.TrimSpace(text) == "" {
		return PromptTemplate{}, fmt.Errorf("prompt template is empty")
	}
	if !strings.Contains(text, QuestionPlaceholder) {
		return PromptTemplate{}, fmt.Errorf("prompt template has no %s placeholder", QuestionPlaceholder)
	}
	return PromptTemplate{text: text}, nil
}

// LoadPromptTemplate reads a template file. An empty path yields the
// embedded default.
func LoadPromptTemplate(path string) (PromptTemplate, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPromptTemplate(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return PromptTemplate{}, fmt.Errorf("read prompt template %q: %w", path, err)
	}
	template, err := NewPromptTemplate(string(raw))
	if err != nil {
		return PromptTemplate{}, fmt.Errorf("prompt template %q: %w", path, err)
	}
	return template, nil
}

func (t PromptTemplate) Build(question string) PromptContext {
	text := t.text
	if text == "" {
		text = defaultTemplate
	}
	return PromptContext{
		Question: question,
		Text:     strings.ReplaceAll(text, QuestionPlaceholder, question),
	}
}
