package scrape

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecbcs/spack-infrastructure/internal/httpcache"
	"github.com/alecbcs/spack-infrastructure/internal/logstore"
	"github.com/alecbcs/spack-infrastructure/internal/model"
)

// traceLinkPattern is the only api_link shape the scraper understands. The
// job id embedded in the link names the artifact file.
var traceLinkPattern = regexp.MustCompile(`^https?://[^/]+/api/v4/projects/(\d+)/jobs/(\d+)/trace$`)

// tokenHeader carries the GitLab API credential.
const tokenHeader = "PRIVATE-TOKEN"

// Scraper fetches one job trace at a time through a caching transport and
// persists it into the artifact store.
type Scraper struct {
	client *http.Client
	token  string
	store  *logstore.Store
}

// FetchResult describes what one Fetch call did.
type FetchResult struct {
	JobID     int
	Status    int
	FromCache bool
	// Skipped is set when the api_link does not match the trace shape; no
	// artifact is written and the batch continues.
	Skipped bool
	// Marker is set when a transport failure was recorded as an error-marker
	// artifact instead of log content.
	Marker bool
}

func NewScraper(transport *httpcache.Transport, token string, store *logstore.Store) *Scraper {
	return &Scraper{
		client: transport.Client(),
		token:  token,
		store:  store,
	}
}

// ResolveTraceLink extracts the remote project id and job id from an
// api_link, or reports that the link does not have the trace shape.
func ResolveTraceLink(link string) (project, jobID int, ok bool) {
	m := traceLinkPattern.FindStringSubmatch(strings.TrimSpace(link))
	if m == nil {
		return 0, 0, false
	}
	project, _ = strconv.Atoi(m[1])
	jobID, _ = strconv.Atoi(m[2])
	return project, jobID, true
}

// Fetch retrieves the trace for one job record and writes exactly one
// artifact named by the job id resolved from the link. A non-success status
// or a transport failure degrades to an error-marker artifact; only writing
// the artifact itself can fail the call.
func (s *Scraper) Fetch(rec model.JobRecord) (FetchResult, error) {
	link := strings.TrimSpace(rec.APILink)
	_, jobID, ok := ResolveTraceLink(link)
	if !ok {
		return FetchResult{Skipped: true}, nil
	}

	res := FetchResult{JobID: jobID}
	text, status, fromCache, err := s.get(link)
	res.Status = status
	res.FromCache = fromCache
	if err != nil || status < 200 || status >= 300 {
		text = ErrorMarker(status, link)
		res.Marker = true
	}

	if err := s.store.Write(jobID, text); err != nil {
		return res, err
	}
	return res, nil
}

// ErrorMarker is the synthetic artifact content recorded for a failed fetch.
// Status 0 means the transport produced no response at all.
func ErrorMarker(status int, link string) string {
	return fmt.Sprintf("ERROR: Got %d for %s", status, link)
}

func (s *Scraper) get(link string) (body string, status int, fromCache bool, err error) {
	req, err := http.NewRequest(http.MethodGet, link, nil)
	if err != nil {
		return "", 0, false, fmt.Errorf("build request for %s: %w", link, err)
	}
	req.Header.Set(tokenHeader, s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, false, fmt.Errorf("fetch %s: %w", link, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, false, fmt.Errorf("read trace body for %s: %w", link, err)
	}
	return string(data), resp.StatusCode, resp.Header.Get(httpcache.FromCacheHeader) != "", nil
}
