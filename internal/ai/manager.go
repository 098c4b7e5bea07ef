package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appErr "github.com/larkvine/docrag/internal/pkg/errors"
)

const (
	// Task hints forwarded to embed providers that support them.
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

type ManagerConfig struct {
	TimeoutSeconds int
	MaxRetries     int
	BatchLimit     int
}

// Manager fronts the embed and completion providers with per-call
// timeouts and retry-with-backoff for transient embed failures.
// Callers treat a timeout as retryable, never fatal.
type Manager struct {
	embedder  IEmbedder
	completer ICompleter
	cfg       ManagerConfig
}

func NewManager(embedder IEmbedder, completer ICompleter, cfg ManagerConfig) *Manager {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 4
	}
	return &Manager{embedder: embedder, completer: completer, cfg: cfg}
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, appErr.ErrAIUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, appErr.ErrInvalid
	}
	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt < m.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", appErr.ErrEmbeddingService, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		vec, err := m.embedOnce(ctx, text, taskType)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("embed attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", m.cfg.MaxRetries),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", appErr.ErrEmbeddingService, lastErr)
}

func (m *Manager) embedOnce(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}
	vec, err := m.embedder.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}
	return vec, nil
}

// EmbedBatch embeds texts with bounded concurrency, preserving input
// order. One failed text fails the whole batch; the caller decides
// whether to retry the document.
func (m *Manager) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	results := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.BatchLimit)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := m.Embed(gctx, text, taskType)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}
			results[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (m *Manager) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	if m.completer == nil {
		return "", appErr.ErrAIUnavailable
	}
	if m.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}
	text, err := m.completer.Complete(ctx, system, messages)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

// CompleteStream runs without the per-call timeout: a stream lives as
// long as the request context does, and a client disconnect cancels
// the provider call promptly through ctx.
func (m *Manager) CompleteStream(ctx context.Context, system string, messages []Message, emit func(token string) error) error {
	if m.completer == nil {
		return appErr.ErrAIUnavailable
	}
	return m.completer.CompleteStream(ctx, system, messages, emit)
}
