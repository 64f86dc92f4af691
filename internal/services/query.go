package services

import (
	"context"

	"github.com/mydrift-ai/mydrift/internal/generation"
	"github.com/mydrift-ai/mydrift/internal/retrieval"
)

// Retriever resolves a query to grounding context text.
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int, scope *retrieval.Scope) (string, error)
}

// Generator streams a grounded answer for a request.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (<-chan generation.Event, error)
}

// QueryService orchestrates the ask flow: retrieve context, then stream the
// grounded answer.
type QueryService struct {
	retriever Retriever
	generator Generator
	limit     int
}

func NewQueryService(r Retriever, g Generator, contextWindow int) *QueryService {
	return &QueryService{retriever: r, generator: g, limit: contextWindow}
}

// AskRequest is one end-to-end query.
type AskRequest struct {
	User    string
	Query   string
	Sender  string
	LLMName string
	Source  string
}

// Ask retrieves grounding context and opens the generation stream. An empty
// retrieval result still produces an answer; the model just has nothing to
// ground on.
func (s *QueryService) Ask(ctx context.Context, req AskRequest) (<-chan generation.Event, error) {
	var scope *retrieval.Scope
	if req.Sender != "" {
		scope = &retrieval.Scope{Sender: req.Sender}
	}
	grounding, err := s.retriever.Retrieve(ctx, req.Query, s.limit, scope)
	if err != nil {
		return nil, err
	}
	return s.generator.Generate(ctx, generation.Request{
		User:    req.User,
		Query:   req.Query,
		Context: grounding,
		LLMName: req.LLMName,
		Source:  req.Source,
	})
}
