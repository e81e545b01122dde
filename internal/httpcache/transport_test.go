package httpcache

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestRoundTripReplaysSecondFetchFromDisk(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, "job log body")
	}))
	defer srv.Close()

	transport, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	client := transport.Client()

	first, err := client.Get(srv.URL + "/trace")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	firstBody, _ := io.ReadAll(first.Body)
	_ = first.Body.Close()
	if first.Header.Get(FromCacheHeader) != "" {
		t.Fatalf("first fetch unexpectedly served from cache")
	}

	second, err := client.Get(srv.URL + "/trace")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	secondBody, _ := io.ReadAll(second.Body)
	_ = second.Body.Close()

	if hits.Load() != 1 {
		t.Fatalf("expected exactly one upstream hit, got %d", hits.Load())
	}
	if second.Header.Get(FromCacheHeader) != "1" {
		t.Fatalf("expected second fetch to be served from cache")
	}
	if string(firstBody) != "job log body" || string(secondBody) != "job log body" {
		t.Fatalf("unexpected bodies: %q / %q", firstBody, secondBody)
	}
	if second.StatusCode != http.StatusOK {
		t.Fatalf("expected replayed 200, got %d", second.StatusCode)
	}
}

func TestRoundTripDoesNotCacheFailures(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	transport, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	client := transport.Client()

	for i := 0; i < 2; i++ {
		resp, err := client.Get(srv.URL + "/trace")
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("fetch %d: expected 503, got %d", i, resp.StatusCode)
		}
	}

	if hits.Load() != 2 {
		t.Fatalf("expected failures to bypass the cache, got %d upstream hits", hits.Load())
	}
}

func TestRoundTripDistinctURLsAreDistinctEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.URL.Path)
	}))
	defer srv.Close()

	transport, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	client := transport.Client()

	for _, path := range []string{"/jobs/1/trace", "/jobs/2/trace"} {
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("fetch %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if string(body) != path {
			t.Fatalf("expected body %q, got %q", path, body)
		}
	}

	// Both must now replay from cache with their own bodies.
	for _, path := range []string{"/jobs/1/trace", "/jobs/2/trace"} {
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("cached fetch %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if resp.Header.Get(FromCacheHeader) != "1" {
			t.Fatalf("expected cache hit for %s", path)
		}
		if string(body) != path {
			t.Fatalf("cache returned wrong body for %s: %q", path, body)
		}
	}
}
