package httpcache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alecbcs/spack-infrastructure/internal/logstore"
)

// FromCacheHeader is set on responses replayed from disk so callers can tell
// a cache hit from a live fetch.
const FromCacheHeader = "X-From-Cache"

// Transport is an http.RoundTripper that persists successful GET responses in
// a session directory and replays them on later identical requests without a
// network round-trip. Cache identity is the request URL, not whatever the
// caller derives from the response. Non-2xx responses are never cached, so
// transient failures are retried by later invocations.
type Transport struct {
	Base http.RoundTripper

	dir string

	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

type cacheEntry struct {
	URL       string `json:"url"`
	Status    int    `json:"status"`
	Body      string `json:"body"`
	FetchedAt string `json:"fetched_at"`
}

// New opens (creating if needed) a cache session directory.
func New(dir string) (*Transport, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if err := logstore.Mkdir(dir); err != nil {
		return nil, err
	}
	return &Transport{dir: dir, keys: make(map[string]*sync.Mutex)}, nil
}

// Client returns an http.Client fetching through the cache.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.base().RoundTrip(req)
	}

	key := cacheKey(req.URL.String())

	// Identical in-flight requests are serialized so the same URL is fetched
	// at most once; distinct keys proceed without coordination.
	lock := t.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	// Unreadable entries count as misses; the live response overwrites them.
	path := filepath.Join(t.dir, key+".json")
	var entry cacheEntry
	if err := logstore.ReadJSON(path, &entry); err == nil {
		return replay(req, entry), nil
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response body for %s: %w", req.URL, err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		entry = cacheEntry{
			URL:       req.URL.String(),
			Status:    resp.StatusCode,
			Body:      string(body),
			FetchedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := logstore.WriteJSON(path, entry); err != nil {
			return nil, fmt.Errorf("persist cache entry for %s: %w", req.URL, err)
		}
	}
	return resp, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) keyLock(key string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.keys[key]
	if !ok {
		lock = &sync.Mutex{}
		t.keys[key] = lock
	}
	return lock
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func replay(req *http.Request, entry cacheEntry) *http.Response {
	header := make(http.Header)
	header.Set(FromCacheHeader, "1")
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", entry.Status, http.StatusText(entry.Status)),
		StatusCode:    entry.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(strings.NewReader(entry.Body)),
		ContentLength: int64(len(entry.Body)),
		Request:       req,
	}
}
