package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrUnavailable = errors.New("ai provider not configured")

// Message is one turn handed to the completion service.
type Message struct {
	Role    string `json:"role"` // "human" or "assistant"
	Content string `json:"content"`
}

const (
	RoleHuman     = "human"
	RoleAssistant = "assistant"
)

type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

type ICompletionProvider interface {
	Name() string
	Complete(ctx context.Context, model string, system string, messages []Message) (string, error)
	CompleteStream(ctx context.Context, model string, system string, messages []Message, emit func(token string) error) error
}

// IEmbedder binds an embed provider to a fixed model.
type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

// ICompleter binds a completion provider to a fixed model.
type ICompleter interface {
	Complete(ctx context.Context, system string, messages []Message) (string, error)
	CompleteStream(ctx context.Context, system string, messages []Message, emit func(token string) error) error
}

type embedder struct {
	provider IEmbedProvider
	model    string
}

func NewEmbedder(p IEmbedProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.model
}

type completer struct {
	provider ICompletionProvider
	model    string
}

func NewCompleter(p ICompletionProvider, model string) ICompleter {
	return &completer{provider: p, model: model}
}

func (c *completer) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	return c.provider.Complete(ctx, c.model, system, messages)
}

func (c *completer) CompleteStream(ctx context.Context, system string, messages []Message, emit func(token string) error) error {
	return c.provider.CompleteStream(ctx, c.model, system, messages, emit)
}

type EmbedFactory func(args interface{}) (IEmbedProvider, error)
type CompletionFactory func(args interface{}) (ICompletionProvider, error)

var (
	embedRegistry      = map[string]EmbedFactory{}
	completionRegistry = map[string]CompletionFactory{}
)

func RegisterEmbed(name string, factory EmbedFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	embedRegistry[key] = factory
}

func RegisterCompletion(name string, factory CompletionFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	completionRegistry[key] = factory
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := embedRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported embed provider: %s", name)
	}
	return factory(args)
}

func NewCompletionProvider(name string, args interface{}) (ICompletionProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := completionRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported completion provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
