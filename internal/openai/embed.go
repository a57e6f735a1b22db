// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package openai

import (
	"context"
	"encoding/json"

	clinterr "github.com/clint-dev/clint/pkg/errors"
)

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// CreateEmbedding embeds text with the configured embedding model.
func (c *Client) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.post(ctx, "/embeddings", embeddingRequest{
		Model: c.cfg.EmbeddingModel,
		Input: text,
	})
	if err != nil {
		return nil, clinterr.Wrap(err, clinterr.CodeEmbeddingFailure,
			"openai: embedding request failed")
	}
	defer drainAndClose(resp.Body)

	var decoded embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, clinterr.Wrapf(err, clinterr.CodeEmbeddingFailure,
			"openai: decoding embedding response")
	}
	if len(decoded.Data) == 0 || len(decoded.Data[0].Embedding) == 0 {
		return nil, clinterr.New(clinterr.CodeEmbeddingFailure,
			"openai: embedding response carried no vector")
	}
	return decoded.Data[0].Embedding, nil
}
