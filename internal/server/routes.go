// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/clint-dev/clint/internal/assistant"
	"github.com/clint-dev/clint/internal/corpus"
	"github.com/clint-dev/clint/internal/diagnose"
	clinterr "github.com/clint-dev/clint/pkg/errors"
)

// Searcher ranks corpus documents for a query. *assistant.Assistant
// satisfies it.
type Searcher interface {
	Retrieve(ctx context.Context, text string, n int, cats ...corpus.Category) ([]assistant.Result, error)
}

// Diagnoser maps a candidate diagnosis text onto a corpus condition.
type Diagnoser interface {
	Resolve(ctx context.Context, candidate string) (*diagnose.Resolved, error)
}

const defaultSearchLimit = 10

// SearchRequest is the corpus search request.
type SearchRequest struct {
	Body struct {
		Query      string   `json:"query" minLength:"1" doc:"Free-text search query"`
		Limit      int      `json:"limit,omitempty" minimum:"0" maximum:"100" doc:"Maximum results (default 10)"`
		Categories []string `json:"categories,omitempty" doc:"Restrict to categories: introduction, condition, symptom"`
	}
}

// SearchBody is the ranked result list.
type SearchBody struct {
	Results []assistant.Result `json:"results"`
}

// SearchResponse wraps the search response.
type SearchResponse struct {
	Body SearchBody
}

// DiagnoseRequest carries candidate diagnosis texts to resolve.
type DiagnoseRequest struct {
	Body struct {
		Candidates []string `json:"candidates" minItems:"1" doc:"Candidate diagnosis texts"`
	}
}

// ResolvedCondition is one resolved corpus condition.
type ResolvedCondition struct {
	ID   string `json:"id" doc:"Condition document id"`
	Name string `json:"name" doc:"Condition title"`
}

// DiagnoseBody lists the resolved conditions, deduplicated, in input order.
type DiagnoseBody struct {
	Conditions []ResolvedCondition `json:"conditions"`
}

// DiagnoseResponse wraps the diagnose response.
type DiagnoseResponse struct {
	Body DiagnoseBody
}

// RegisterRoutes registers the corpus search and diagnose operations.
func (s *Server) RegisterRoutes(searcher Searcher, diagnoser Diagnoser) {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Search the corpus",
		Tags:        []string{"corpus"},
	}, func(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
		cats, err := parseCategories(req.Body.Categories)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		limit := req.Body.Limit
		if limit == 0 {
			limit = defaultSearchLimit
		}

		results, err := searcher.Retrieve(ctx, req.Body.Query, limit, cats...)
		if err != nil {
			slog.Error("corpus search failed", "error", err)
			return nil, huma.NewError(clinterr.HTTPStatus(err), "search failed")
		}
		return &SearchResponse{Body: SearchBody{Results: results}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "diagnose",
		Method:      http.MethodPost,
		Path:        "/api/v1/diagnose",
		Summary:     "Resolve candidate diagnoses to corpus conditions",
		Tags:        []string{"corpus"},
	}, func(ctx context.Context, req *DiagnoseRequest) (*DiagnoseResponse, error) {
		var resolved []diagnose.Resolved
		for _, candidate := range req.Body.Candidates {
			r, err := diagnoser.Resolve(ctx, candidate)
			if err != nil {
				if clinterr.IsNotFound(err) {
					slog.Debug("candidate did not resolve", "candidate", candidate)
					continue
				}
				slog.Error("diagnosis resolution failed", "error", err)
				return nil, huma.NewError(clinterr.HTTPStatus(err), "diagnosis resolution failed")
			}
			resolved = append(resolved, *r)
		}

		body := DiagnoseBody{Conditions: []ResolvedCondition{}}
		for _, r := range diagnose.Dedup(resolved) {
			body.Conditions = append(body.Conditions, ResolvedCondition{
				ID:   r.ID.String(),
				Name: r.Name,
			})
		}
		return &DiagnoseResponse{Body: body}, nil
	})
}

func parseCategories(names []string) ([]corpus.Category, error) {
	cats := make([]corpus.Category, 0, len(names))
	for _, name := range names {
		switch corpus.Category(name) {
		case corpus.CategoryIntroduction, corpus.CategoryCondition, corpus.CategorySymptom:
			cats = append(cats, corpus.Category(name))
		default:
			return nil, clinterr.Errorf(clinterr.CodeServerRequestInvalid,
				"unknown category %q", name)
		}
	}
	return cats, nil
}
