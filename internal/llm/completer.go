package llm

import (
	"context"
	"fmt"
	"sync"
)

// Completer sends a single user turn to a model and returns the raw reply.
type Completer interface {
	Complete(ctx context.Context, model Model, prompt string) (string, error)
}

// ProviderError reports that the model provider could not produce a reply.
type ProviderError struct {
	Provider Provider
	Model    Model
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s completion for model %s: %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Router dispatches each call to the completer registered for the model's
// provider.
type Router struct {
	mu         sync.RWMutex
	completers map[Provider]Completer
}

func NewRouter() *Router {
	return &Router{completers: map[Provider]Completer{}}
}

func (r *Router) Register(provider Provider, completer Completer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completers[provider] = completer
}

// Available reports whether a completer is registered for the model.
func (r *Router) Available(model Model) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.completers[model.Provider()]
	return ok && model.Valid()
}

func (r *Router) Complete(ctx context.Context, model Model, prompt string) (string, error) {
	if !model.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedModel, string(model))
	}
	r.mu.RLock()
	completer, ok := r.completers[model.Provider()]
	r.mu.RUnlock()
	if !ok {
		return "", &ProviderError{Provider: model.Provider(), Model: model, Err: fmt.Errorf("provider is not configured")}
	}
	return completer.Complete(ctx, model, prompt)
}
