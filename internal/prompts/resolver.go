package prompts

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"text/template"
)

// Resolver resolves prompts with config overrides.
// Resolution order: override > embedded default
type Resolver struct {
	mu        sync.RWMutex
	embedded  map[string]EmbeddedPrompt
	overrides map[string]string
	compiled  map[string]*template.Template
	logger    *slog.Logger
}

// NewResolver creates a new prompt resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		embedded:  make(map[string]EmbeddedPrompt),
		overrides: make(map[string]string),
		compiled:  make(map[string]*template.Template),
		logger:    logger,
	}
}

// Register registers an embedded prompt. Called during initialization by
// each stage package.
func (r *Resolver) Register(prompt EmbeddedPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prompt.Hash == "" {
		prompt.Hash = HashText(prompt.Text)
	}
	if prompt.Variables == nil {
		prompt.Variables = ExtractVariables(prompt.Text)
	}

	r.embedded[prompt.Key] = prompt
	delete(r.compiled, prompt.Key)
	r.logger.Debug("registered embedded prompt", "key", prompt.Key, "vars", prompt.Variables)
}

// SetOverrides replaces all overrides. Every override must name a registered
// key and parse as a template; on error nothing changes.
func (r *Resolver) SetOverrides(overrides map[string]string) error {
	compiled := make(map[string]*template.Template, len(overrides))

	r.mu.RLock()
	for key, text := range overrides {
		if _, ok := r.embedded[key]; !ok {
			r.mu.RUnlock()
			return fmt.Errorf("override for unknown prompt: %s", key)
		}
		tmpl, err := Parse(key, text)
		if err != nil {
			r.mu.RUnlock()
			return err
		}
		compiled[key] = tmpl
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides = make(map[string]string, len(overrides))
	for key, text := range overrides {
		r.overrides[key] = text
	}
	r.compiled = compiled
	if len(overrides) > 0 {
		r.logger.Info("applied prompt overrides", "count", len(overrides))
	}
	return nil
}

// Resolve returns the active text for key.
func (r *Resolver) Resolve(key string) (*ResolvedPrompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	embedded, ok := r.embedded[key]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", key)
	}

	if text, ok := r.overrides[key]; ok {
		return &ResolvedPrompt{
			Key:         key,
			Text:        text,
			Description: embedded.Description,
			Variables:   ExtractVariables(text),
			Hash:        HashText(text),
			IsOverride:  true,
		}, nil
	}

	return &ResolvedPrompt{
		Key:         key,
		Text:        embedded.Text,
		Description: embedded.Description,
		Variables:   embedded.Variables,
		Hash:        embedded.Hash,
	}, nil
}

// Render resolves key and executes it with data.
func (r *Resolver) Render(key string, data any) (string, error) {
	tmpl, err := r.template(key)
	if err != nil {
		return "", err
	}
	return Execute(tmpl, data)
}

func (r *Resolver) template(key string) (*template.Template, error) {
	r.mu.RLock()
	tmpl, ok := r.compiled[key]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	resolved, err := r.Resolve(key)
	if err != nil {
		return nil, err
	}
	tmpl, err = Parse(key, resolved.Text)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.compiled[key] = tmpl
	r.mu.Unlock()
	return tmpl, nil
}

// GetEmbedded returns the embedded default for a key.
func (r *Resolver) GetEmbedded(key string) (*EmbeddedPrompt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.embedded[key]
	return &p, ok
}

// All returns every registered prompt resolved, sorted by key.
func (r *Resolver) All() []ResolvedPrompt {
	r.mu.RLock()
	keys := make([]string, 0, len(r.embedded))
	for key := range r.embedded {
		keys = append(keys, key)
	}
	r.mu.RUnlock()
	sort.Strings(keys)

	result := make([]ResolvedPrompt, 0, len(keys))
	for _, key := range keys {
		if p, err := r.Resolve(key); err == nil {
			result = append(result, *p)
		}
	}
	return result
}
