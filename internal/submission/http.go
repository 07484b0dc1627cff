package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/edudesk/gamehost/internal/minigame"
)

// IdempotencyHeader carries the per-view submission key to the backend.
const IdempotencyHeader = "Idempotency-Key"

// HTTPClient submits results to the remote score backend.
type HTTPClient struct {
	url    string
	client *http.Client
}

func NewHTTPClient(url string, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPClient{url: url, client: client}
}

type submitRequest struct {
	GameID         string            `json:"gameId"`
	Answers        []minigame.Answer `json:"answers"`
	ElapsedSeconds int               `json:"elapsedSeconds"`
}

type submitResponse struct {
	ID          string    `json:"id"`
	Score       int       `json:"score"`
	Passed      bool      `json:"passed"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func (c *HTTPClient) Submit(ctx context.Context, sub minigame.Submission) (*minigame.SubmitResult, error) {
	answers := sub.Answers
	if answers == nil {
		answers = []minigame.Answer{}
	}
	body, err := json.Marshal(submitRequest{
		GameID:         sub.GameID,
		Answers:        answers,
		ElapsedSeconds: sub.ElapsedSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sub.IdempotencyKey != "" {
		req.Header.Set(IdempotencyHeader, sub.IdempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting submission: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("score backend returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding submission response: %w", err)
	}
	return &minigame.SubmitResult{
		ID:          out.ID,
		Score:       out.Score,
		Passed:      out.Passed,
		SubmittedAt: out.SubmittedAt,
	}, nil
}
