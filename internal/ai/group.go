package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type EmbedderEntry struct {
	Name     string
	Embedder IEmbedder
}

type CompleterEntry struct {
	Name      string
	Completer ICompleter
}

// NewGroupEmbedder chains embedders so a failing primary falls through
// to the next entry.
func NewGroupEmbedder(items []EmbedderEntry) IEmbedder {
	if len(items) == 0 {
		return nil
	}
	return &groupEmbedder{items: items}
}

type groupEmbedder struct {
	items []EmbedderEntry
}

func (g *groupEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	var lastErr error
	for i, item := range g.items {
		if item.Embedder == nil {
			continue
		}
		res, err := item.Embedder.Embed(ctx, text, taskType)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("embedder failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if lastErr == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	return nil, lastErr
}

func (g *groupEmbedder) ModelName() string {
	names := make([]string, 0, len(g.items))
	for _, item := range g.items {
		if item.Name == "" {
			continue
		}
		names = append(names, item.Name)
	}
	return strings.Join(names, "|")
}

func NewGroupCompleter(items []CompleterEntry) ICompleter {
	if len(items) == 0 {
		return nil
	}
	return &groupCompleter{items: items}
}

type groupCompleter struct {
	items []CompleterEntry
}

func (g *groupCompleter) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	var lastErr error
	for i, item := range g.items {
		if item.Completer == nil {
			continue
		}
		res, err := item.Completer.Complete(ctx, system, messages)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("completer failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if lastErr == nil {
		return "", fmt.Errorf("completer not configured")
	}
	return "", lastErr
}

func (g *groupCompleter) CompleteStream(ctx context.Context, system string, messages []Message, emit func(token string) error) error {
	var lastErr error
	emitted := false
	wrapped := func(token string) error {
		emitted = true
		return emit(token)
	}
	for i, item := range g.items {
		if item.Completer == nil {
			continue
		}
		err := item.Completer.CompleteStream(ctx, system, messages, wrapped)
		if err == nil {
			return nil
		}
		lastErr = err
		// Once tokens reached the client there is no clean fallback.
		if emitted {
			return err
		}
		logutil.GetLogger(ctx).Warn("stream completer failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if lastErr == nil {
		return fmt.Errorf("completer not configured")
	}
	return lastErr
}
