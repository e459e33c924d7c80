package llm

import (
	"errors"
	"fmt"
	"strings"
)

type Provider string

const (
	ProviderOpenAICompatible Provider = "openai-compatible"
	ProviderAnthropic        Provider = "anthropic"
)

type Model string

const (
	ModelLlama3_8B    Model = "llama3-8b-8192"
	ModelLlama3_70B   Model = "llama3-70b-8192"
	ModelMixtral8x7B  Model = "mixtral-8x7b-32768"
	ModelGemma7B      Model = "gemma-7b-it"
	ModelClaudeHaiku  Model = "claude-haiku-4-5"
	ModelClaudeSonnet Model = "claude-sonnet-4-5"
)

const DefaultModel = ModelLlama3_8B

var ErrUnsupportedModel = errors.New("unsupported model")

var modelProviders = map[Model]Provider{
	ModelLlama3_8B:    ProviderOpenAICompatible,
	ModelLlama3_70B:   ProviderOpenAICompatible,
	ModelMixtral8x7B:  ProviderOpenAICompatible,
	ModelGemma7B:      ProviderOpenAICompatible,
	ModelClaudeHaiku:  ProviderAnthropic,
	ModelClaudeSonnet: ProviderAnthropic,
}

var supportedModels = []Model{
	ModelLlama3_8B,
	ModelLlama3_70B,
	ModelMixtral8x7B,
	ModelGemma7B,
	ModelClaudeHaiku,
	ModelClaudeSonnet,
}

// SupportedModels lists the selectable models, default first.
func SupportedModels() []Model {
	return append([]Model(nil), supportedModels...)
}

func ParseModel(value string) (Model, error) {
	model := Model(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := modelProviders[model]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedModel, value)
	}
	return model, nil
}

func (m Model) Provider() Provider {
	return modelProviders[m]
}

func (m Model) Valid() bool {
	_, ok := modelProviders[m]
	return ok
}

func (m Model) String() string {
	return string(m)
}
