// package services defines the client for the MusicStream backend HTTP API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mstream/internal/models"
	"github.com/desertthunder/mstream/internal/shared"
	"github.com/samber/lo"
)

const (
	defaultBaseURL    = "http://localhost:8000"
	DefaultMaxResults = 12
	maxErrorBody      = 512
)

// FetchError describes a failed backend request.
type FetchError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%v: %s (status %d): %s", shared.ErrAPIRequest, e.Endpoint, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", shared.ErrAPIRequest, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%v: %s: %s", shared.ErrAPIRequest, e.Endpoint, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes every FetchError match [shared.ErrAPIRequest].
func (e *FetchError) Is(target error) bool { return target == shared.ErrAPIRequest }

// BackendService talks to the MusicStream backend.
type BackendService struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewBackendService creates a backend client. Nil client and logger fall back to defaults.
func NewBackendService(baseURL string, client *http.Client, logger *log.Logger) *BackendService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &BackendService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     logger,
	}
}

// BaseURL returns the backend root.
func (b *BackendService) BaseURL() string {
	return b.baseURL
}

// AbsoluteURL resolves a backend path (e.g. "/stream/a.mp3") against the base URL.
// Absolute URLs are returned unchanged.
func (b *BackendService) AbsoluteURL(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return b.baseURL + path
}

// doRequest issues method against endpoint and decodes a JSON body into result when non-nil.
func (b *BackendService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, b.AbsoluteURL(endpoint), nil)
	if err != nil {
		return &FetchError{Endpoint: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return &FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: errorMessage(resp.Body, resp.Status)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return &FetchError{Endpoint: endpoint, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}
	return nil
}

// errorMessage pulls {"error": "..."} out of an error body, else returns a trimmed snippet or fallback.
func errorMessage(body io.Reader, fallback string) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return fallback
	}

	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}

// Search queries remote videos. max <= 0 uses [DefaultMaxResults].
//
// The endpoint answers either a list of results or an {"error": ...} object.
func (b *BackendService) Search(ctx context.Context, query string, max int) ([]models.Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if max <= 0 {
		max = DefaultMaxResults
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("max_results", strconv.Itoa(max))
	endpoint := "/youtube/search?" + params.Encode()

	var raw json.RawMessage
	if err := b.doRequest(ctx, http.MethodGet, endpoint, &raw); err != nil {
		return nil, err
	}

	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &payload); err != nil || payload.Error == "" {
			return nil, &FetchError{Endpoint: endpoint, Message: "unexpected search response"}
		}
		return nil, &FetchError{Endpoint: endpoint, Message: payload.Error}
	}

	var videos []models.Video
	if err := json.Unmarshal(raw, &videos); err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	b.logger.Debug("search complete", "query", query, "results", len(videos))
	return lo.Filter(videos, func(v models.Video, _ int) bool { return v.ID != "" }), nil
}

// LocalFiles lists the audio files served under /stream.
func (b *BackendService) LocalFiles(ctx context.Context) ([]string, error) {
	var files []string
	if err := b.doRequest(ctx, http.MethodGet, "/mp3-list", &files); err != nil {
		return nil, err
	}
	return lo.Compact(files), nil
}

// Playlists lists playlist summaries.
func (b *BackendService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	if err := b.doRequest(ctx, http.MethodGet, "/playlists", &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

// ProbeStream checks that the backend can proxy-stream videoID. Any non-2xx answer is an error.
func (b *BackendService) ProbeStream(ctx context.Context, videoID string) error {
	if videoID == "" {
		return fmt.Errorf("%w: video id", shared.ErrMissingArgument)
	}
	return b.doRequest(ctx, http.MethodHead, models.RemoteSource(videoID, "", "", "").StreamURL(), nil)
}

// ResolveAudio asks the backend for a direct audio URL for videoID.
func (b *BackendService) ResolveAudio(ctx context.Context, videoID string) (string, error) {
	if videoID == "" {
		return "", fmt.Errorf("%w: video id", shared.ErrMissingArgument)
	}
	endpoint := "/youtube/audio/" + url.PathEscape(videoID)

	var payload struct {
		Success  bool   `json:"success"`
		AudioURL string `json:"audio_url"`
		Error    string `json:"error"`
	}
	if err := b.doRequest(ctx, http.MethodGet, endpoint, &payload); err != nil {
		return "", err
	}

	if !payload.Success || payload.AudioURL == "" {
		msg := payload.Error
		if msg == "" {
			msg = "Failed to extract audio URL"
		}
		return "", &FetchError{Endpoint: endpoint, Message: msg}
	}

	audioURL := b.AbsoluteURL(payload.AudioURL)
	if isPlaylistURL(audioURL) {
		return b.resolveVariant(ctx, audioURL)
	}
	return audioURL, nil
}
