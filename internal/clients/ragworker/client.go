package ragworker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/types"
)

// Retriever fetches ranked learning resources from the retrieval sidecar.
// Retrieval is best-effort: callers treat an error the same as zero results.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]types.ResourceUsed, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Retriever, error) {
	baseURL := strings.TrimSpace(os.Getenv("RAG_WORKER_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:8001"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &client{
		log:        log.With("service", "RagWorkerClient"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type retrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// retrieveResponse carries only the citations; the sidecar's raw results
// array (chunk contents and scores) is not consumed here.
type retrieveResponse struct {
	Citations []struct {
		Title     string  `json:"title"`
		URL       string  `json:"url"`
		Relevance float64 `json:"relevance"`
	} `json:"citations"`
}

func (c *client) Retrieve(ctx context.Context, query string, topK int) ([]types.ResourceUsed, error) {
	if topK <= 0 {
		topK = 3
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(retrieveRequest{Query: query, TopK: topK}); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/retrieve", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rag-worker http %d: %s", resp.StatusCode, string(raw))
	}

	var out retrieveResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("rag-worker decode error: %w", err)
	}

	resources := make([]types.ResourceUsed, 0, len(out.Citations))
	for _, r := range out.Citations {
		resources = append(resources, types.ResourceUsed{Title: r.Title, URL: r.URL, Relevance: r.Relevance})
	}
	return resources, nil
}
