package scrape

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/alecbcs/spack-infrastructure/internal/httpcache"
	"github.com/alecbcs/spack-infrastructure/internal/logstore"
	"github.com/alecbcs/spack-infrastructure/internal/model"
)

type RunOptions struct {
	Token    string
	LogDir   string
	CacheDir string
	Workers  int
	// Limit caps how many records are dispatched this invocation (0 = all).
	Limit int
	Quiet bool
}

type RunResult struct {
	Total     int `json:"total"`
	Fetched   int `json:"fetched"`
	FromCache int `json:"from_cache"`
	Markers   int `json:"error_markers"`
	Skipped   int `json:"skipped"`
}

// Run fetches the trace for every manifest record into the log directory.
// Records are independent; fetches fan out across a bounded worker pool, and
// each resolved job id is handled by exactly one worker. Per-record failures
// never abort the batch: a bad link shape is skipped with a warning, and a
// failed fetch leaves an error-marker artifact behind.
func Run(records []model.JobRecord, opts RunOptions) (RunResult, error) {
	store, err := logstore.Open(opts.LogDir)
	if err != nil {
		return RunResult{}, err
	}
	storeLock, err := logstore.AcquireStoreLock(opts.LogDir)
	if err != nil {
		return RunResult{}, err
	}
	defer func() {
		_ = storeLock.Release()
	}()

	transport, err := httpcache.New(opts.CacheDir)
	if err != nil {
		return RunResult{}, err
	}
	scraper := NewScraper(transport, opts.Token, store)

	workers := opts.Workers
	if workers <= 0 {
		workers = 5
	}

	total := len(records)
	if opts.Limit > 0 && opts.Limit < total {
		total = opts.Limit
	}

	jobCh := make(chan model.JobRecord)

	var fetched, fromCache, markers, skipped atomic.Int64
	var done atomic.Int64
	var logMu sync.Mutex
	var wg sync.WaitGroup
	var fatalErr atomic.Value
	var stopAll atomic.Bool
	setFatal := func(err error) {
		if err == nil {
			return
		}
		if fatalErr.Load() == nil {
			fatalErr.Store(err.Error())
		}
		stopAll.Store(true)
	}

	say := func(format string, args ...any) {
		if opts.Quiet {
			return
		}
		logMu.Lock()
		fmt.Printf(format+"\n", args...)
		logMu.Unlock()
	}
	warn := func(format string, args ...any) {
		logMu.Lock()
		fmt.Fprintf(os.Stderr, format+"\n", args...)
		logMu.Unlock()
	}

	workerFn := func() {
		defer wg.Done()
		for rec := range jobCh {
			if stopAll.Load() {
				continue
			}
			res, err := scraper.Fetch(rec)
			n := done.Add(1)
			if err != nil {
				// Only artifact-store writes fail a fetch; that is fatal
				// because the store would diverge from the manifest.
				setFatal(err)
				continue
			}
			switch {
			case res.Skipped:
				skipped.Add(1)
				warn("[%d/%d] api link %q is not valid, skipping", n, total, rec.APILink)
			case res.Marker:
				markers.Add(1)
				warn("[%d/%d] got %d for job %d, recorded error marker", n, total, res.Status, res.JobID)
			case res.FromCache:
				fetched.Add(1)
				fromCache.Add(1)
				say("[%d/%d] fetched %d (cached)", n, total, res.JobID)
			default:
				fetched.Add(1)
				say("[%d/%d] fetched %d", n, total, res.JobID)
			}
		}
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go workerFn()
	}

	dispatched := 0
	for _, rec := range records {
		if stopAll.Load() {
			break
		}
		if opts.Limit > 0 && dispatched >= opts.Limit {
			break
		}
		jobCh <- rec
		dispatched++
	}
	close(jobCh)
	wg.Wait()

	if msg := fatalErr.Load(); msg != nil {
		return RunResult{}, fmt.Errorf("%s", msg.(string))
	}

	return RunResult{
		Total:     total,
		Fetched:   int(fetched.Load()),
		FromCache: int(fromCache.Load()),
		Markers:   int(markers.Load()),
		Skipped:   int(skipped.Load()),
	}, nil
}
