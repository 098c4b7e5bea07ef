package service

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/larkvine/docrag/internal/ai"
	"github.com/larkvine/docrag/internal/model"
	"github.com/larkvine/docrag/internal/retrieval"
)

type Completer interface {
	Complete(ctx context.Context, system string, messages []ai.Message) (string, error)
	CompleteStream(ctx context.Context, system string, messages []ai.Message, emit func(token string) error) error
}

type QueryService struct {
	orchestrator *retrieval.Orchestrator
	completer    Completer
}

func NewQueryService(orchestrator *retrieval.Orchestrator, completer Completer) *QueryService {
	return &QueryService{orchestrator: orchestrator, completer: completer}
}

// Search returns raw retrieval output with citations, no completion.
func (s *QueryService) Search(ctx context.Context, query string, threshold float32, count int) (*retrieval.Result, error) {
	return s.orchestrator.Retrieve(ctx, query, threshold, count)
}

type ChatResult struct {
	Answer    string           `json:"answer"`
	Citations []model.Citation `json:"citations"`
}

// Chat retrieves context for the query and asks the completion model
// to answer grounded in it.
func (s *QueryService) Chat(ctx context.Context, query string, turns []model.ChatTurn, threshold float32, count int) (*ChatResult, error) {
	res, err := s.orchestrator.Retrieve(ctx, query, threshold, count)
	if err != nil {
		return nil, err
	}
	if len(res.Results) == 0 {
		return &ChatResult{Answer: res.Message}, nil
	}
	system, messages := retrieval.BuildPrompt(query, turns, res.Results)
	answer, err := s.completer.Complete(ctx, system, messages)
	if err != nil {
		logutil.GetLogger(ctx).Error("completion failed", zap.Error(err))
		return nil, err
	}
	return &ChatResult{Answer: answer, Citations: res.Citations}, nil
}

// ChatStream is Chat with token streaming. Citations are returned up
// front so the caller can emit them before or after the token flow.
func (s *QueryService) ChatStream(ctx context.Context, query string, turns []model.ChatTurn, threshold float32, count int,
	emit func(token string) error) ([]model.Citation, error) {
	res, err := s.orchestrator.Retrieve(ctx, query, threshold, count)
	if err != nil {
		return nil, err
	}
	if len(res.Results) == 0 {
		if err := emit(res.Message); err != nil {
			return nil, err
		}
		return nil, nil
	}
	system, messages := retrieval.BuildPrompt(query, turns, res.Results)
	if err := s.completer.CompleteStream(ctx, system, messages, emit); err != nil {
		logutil.GetLogger(ctx).Error("stream completion failed", zap.Error(err))
		return nil, err
	}
	return res.Citations, nil
}
