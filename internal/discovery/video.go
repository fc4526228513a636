package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wlfogle/mediafetch/internal/domain"
)

const watchURLBase = "https://www.youtube.com/watch?v="

// VideoBackend searches an Invidious-compatible API for alternative
// uploads on the video platform. The instance URL is configurable since
// public instances come and go.
type VideoBackend struct {
	client  *http.Client
	baseURL string
	limit   int
}

// NewVideoBackend creates a video-platform search backend against an
// Invidious-compatible instance.
func NewVideoBackend(baseURL string, limit int, timeout time.Duration) *VideoBackend {
	return &VideoBackend{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   limit,
	}
}

// Name returns the backend's display name.
func (b *VideoBackend) Name() string { return "video-platform" }

// Kind returns the ranking capability class.
func (b *VideoBackend) Kind() domain.BackendKind { return domain.BackendVideo }

// videoResult mirrors one entry of the Invidious search response.
type videoResult struct {
	Type        string `json:"type"`
	VideoID     string `json:"videoId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Search queries /api/v1/search, keeping only video results up to the
// configured limit.
func (b *VideoBackend) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "video")

	endpoint := b.baseURL + "/api/v1/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build video search request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video search returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read video search response: %w", err)
	}

	var parsed []videoResult
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode video search response: %w", err)
	}

	results := make([]domain.SearchResult, 0, b.limit)
	for _, entry := range parsed {
		if entry.Type != "" && entry.Type != "video" {
			continue
		}
		if entry.VideoID == "" {
			continue
		}
		results = append(results, domain.SearchResult{
			Identifier:  entry.VideoID,
			Title:       entry.Title,
			Description: entry.Description,
			URL:         watchURLBase + entry.VideoID,
		})
		if len(results) >= b.limit {
			break
		}
	}
	return results, nil
}
