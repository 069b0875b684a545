package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/mstream/internal/shared"
	tu "github.com/desertthunder/mstream/internal/testing"
)

func newTestService(t *testing.T, handler http.HandlerFunc) (*BackendService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewBackendService(server.URL, server.Client(), shared.NewLogger(&strings.Builder{})), server
}

func TestBackendService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewBackendService", func(t *testing.T) {
		t.Run("creates service with default URL", func(t *testing.T) {
			if svc := NewBackendService("", nil, nil); svc.BaseURL() != defaultBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", defaultBaseURL, svc.BaseURL())
			}
		})

		t.Run("trims trailing slash", func(t *testing.T) {
			if svc := NewBackendService("http://localhost:9000/", nil, nil); svc.BaseURL() != "http://localhost:9000" {
				t.Errorf("unexpected baseURL %s", svc.BaseURL())
			}
		})
	})

	t.Run("AbsoluteURL", func(t *testing.T) {
		svc := NewBackendService("http://host:8000", nil, nil)

		tc := map[string]string{
			"/stream/a.mp3":             "http://host:8000/stream/a.mp3",
			"stream/a.mp3":              "http://host:8000/stream/a.mp3",
			"https://cdn.example/a.m4a": "https://cdn.example/a.m4a",
		}
		for in, want := range tc {
			if got := svc.AbsoluteURL(in); got != want {
				t.Errorf("AbsoluteURL(%q) = %q, want %q", in, got, want)
			}
		}
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("returns results", func(t *testing.T) {
			svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/youtube/search" {
					t.Errorf("expected path /youtube/search, got %s", r.URL.Path)
				}
				if q := r.URL.Query().Get("q"); q != "lofi beats" {
					t.Errorf("expected q=lofi beats, got %s", q)
				}
				if m := r.URL.Query().Get("max_results"); m != "5" {
					t.Errorf("expected max_results=5, got %s", m)
				}
				json.NewEncoder(w).Encode([]map[string]string{
					{"id": "v1", "title": "One", "channel": "C1", "thumbnail": "t1", "description": "d"},
					{"id": "", "title": "broken"},
					{"id": "v2", "title": "Two", "channel": "C2"},
				})
			})

			videos, err := svc.Search(ctx, "lofi beats", 5)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(videos) != 2 {
				t.Fatalf("expected 2 videos, got %d", len(videos))
			}
			if videos[0].ID != "v1" || videos[0].Channel != "C1" {
				t.Errorf("unexpected first video %+v", videos[0])
			}
		})

		t.Run("defaults max results", func(t *testing.T) {
			svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				if m := r.URL.Query().Get("max_results"); m != "12" {
					t.Errorf("expected max_results=12, got %s", m)
				}
				w.Write([]byte("[]"))
			})

			if _, err := svc.Search(ctx, "x", 0); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("surfaces error payload", func(t *testing.T) {
			svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"error": "quota exceeded"}`))
			})

			_, err := svc.Search(ctx, "x", 1)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), "quota exceeded") {
				t.Errorf("expected backend message in error, got %v", err)
			}
		})

		t.Run("rejects empty query", func(t *testing.T) {
			svc := NewBackendService("http://unused", nil, nil)
			if _, err := svc.Search(ctx, "   ", 1); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("handles non-2xx", func(t *testing.T) {
			svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error": "boom"}`))
			})

			_, err := svc.Search(ctx, "x", 1)
			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected FetchError, got %v", err)
			}
			if fetchErr.StatusCode != http.StatusInternalServerError || fetchErr.Message != "boom" {
				t.Errorf("unexpected fetch error %+v", fetchErr)
			}
		})
	})

	t.Run("LocalFiles", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/mp3-list" {
				t.Errorf("expected path /mp3-list, got %s", r.URL.Path)
			}
			w.Write([]byte(`["a.mp3", "", "b.mp3"]`))
		})

		files, err := svc.LocalFiles(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(files) != 2 || files[0] != "a.mp3" || files[1] != "b.mp3" {
			t.Errorf("unexpected files %v", files)
		}
	})

	t.Run("LocalFiles malformed payload", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"not": "a list"}`))
		})

		if _, err := svc.LocalFiles(ctx); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("LocalFiles body read failure", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(&http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}}, nil)
		svc := NewBackendService("http://backend", &http.Client{Transport: rt}, nil)

		_, err := svc.LocalFiles(ctx)

		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("expected FetchError, got %v", err)
		}
		if fe.Endpoint != "/mp3-list" {
			t.Errorf("unexpected endpoint %s", fe.Endpoint)
		}
	})

	t.Run("LocalFiles round trip failure", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(nil, errors.New("connection refused"))
		svc := NewBackendService("http://backend", &http.Client{Transport: rt}, nil)

		if _, err := svc.LocalFiles(ctx); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Playlists", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"name": "Chill", "count": 4}, {"name": "Focus", "count": 0}]`))
		})

		playlists, err := svc.Playlists(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(playlists) != 2 || playlists[0].Name != "Chill" || playlists[0].Count != 4 {
			t.Errorf("unexpected playlists %+v", playlists)
		}
	})

	t.Run("ProbeStream", func(t *testing.T) {
		t.Run("available", func(t *testing.T) {
			svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodHead {
					t.Errorf("expected HEAD, got %s", r.Method)
				}
				if r.URL.Path != "/youtube/stream/abc" {
					t.Errorf("expected path /youtube/stream/abc, got %s", r.URL.Path)
				}
				w.WriteHeader(http.StatusOK)
			})

			if err := svc.ProbeStream(ctx, "abc"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("unavailable", func(t *testing.T) {
			svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			})

			if err := svc.ProbeStream(ctx, "abc"); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("transport error", func(t *testing.T) {
			svc, server := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
			server.Close()

			if err := svc.ProbeStream(ctx, "abc"); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("ResolveAudio", func(t *testing.T) {
		t.Run("returns direct URL", func(t *testing.T) {
			svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/youtube/audio/abc" {
					t.Errorf("expected path /youtube/audio/abc, got %s", r.URL.Path)
				}
				w.Write([]byte(`{"success": true, "audio_url": "https://x/y"}`))
			})

			audio, err := svc.ResolveAudio(ctx, "abc")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if audio != "https://x/y" {
				t.Errorf("expected https://x/y, got %s", audio)
			}
		})

		t.Run("reports extraction failure", func(t *testing.T) {
			svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"success": false, "error": "extraction failed"}`))
			})

			_, err := svc.ResolveAudio(ctx, "abc")
			if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "extraction failed") {
				t.Errorf("expected extraction failure, got %v", err)
			}
		})

		t.Run("success false with 200", func(t *testing.T) {
			svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success": false}`))
			})

			_, err := svc.ResolveAudio(ctx, "abc")
			if err == nil || !strings.Contains(err.Error(), "Failed to extract audio URL") {
				t.Errorf("expected default failure message, got %v", err)
			}
		})

		t.Run("narrows HLS master playlist to first variant", func(t *testing.T) {
			var serverURL string
			svc, server := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/youtube/audio/abc":
					json.NewEncoder(w).Encode(map[string]any{"success": true, "audio_url": serverURL + "/hls/master.m3u8"})
				case "/hls/master.m3u8":
					w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
					w.Write([]byte("#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=128000,CODECS=\"mp4a.40.2\"\naudio/index.m3u8\n"))
				default:
					t.Errorf("unexpected path %s", r.URL.Path)
				}
			})
			serverURL = server.URL

			audio, err := svc.ResolveAudio(ctx, "abc")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if audio != server.URL+"/hls/audio/index.m3u8" {
				t.Errorf("expected first variant, got %s", audio)
			}
		})
	})
}
