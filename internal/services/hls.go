package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/etherlabsio/go-m3u8/m3u8"
)

func isPlaylistURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".m3u8")
}

// resolveVariant fetches an HLS playlist and returns the URL of its first variant stream.
// Media playlists (no variants) are returned as is.
func (b *BackendService) resolveVariant(ctx context.Context, playlistURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, playlistURL, nil)
	if err != nil {
		return "", &FetchError{Endpoint: playlistURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", &FetchError{Endpoint: playlistURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &FetchError{Endpoint: playlistURL, StatusCode: resp.StatusCode, Message: resp.Status}
	}

	playlist, err := m3u8.Read(resp.Body)
	if err != nil {
		return "", &FetchError{Endpoint: playlistURL, Err: fmt.Errorf("failed to parse playlist: %w", err)}
	}

	if !playlist.IsMaster() {
		return playlistURL, nil
	}

	base, err := url.Parse(playlistURL)
	if err != nil {
		return "", &FetchError{Endpoint: playlistURL, Err: err}
	}

	for _, item := range playlist.Items {
		variant, ok := item.(*m3u8.PlaylistItem)
		if !ok || variant.URI == "" {
			continue
		}
		ref, err := url.Parse(variant.URI)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref).String()
		b.logger.Debug("resolved HLS variant", "playlist", playlistURL, "variant", resolved)
		return resolved, nil
	}

	return "", &FetchError{Endpoint: playlistURL, Message: "master playlist has no variants"}
}
