package taxonomy

import (
	"sync"

	"github.com/alecbcs/spack-infrastructure/internal/logstore"
	"github.com/alecbcs/spack-infrastructure/internal/model"
)

type ClassifyOptions struct {
	Records []model.JobRecord
	Store   *logstore.Store
	// Taxonomy to evaluate; nil means Default(). Always an explicit value,
	// never ambient state shared between runs.
	Taxonomy *Taxonomy
	// Workers bounds per-category parallelism (0 = one per category).
	Workers int
	// Observer, when set, receives each category's match count as soon as
	// every category has been evaluated, in taxonomy order. Observability
	// only; results are identical without it.
	Observer func(category string, matched int)
}

// Classify evaluates every taxonomy category against the manifest and the
// artifact corpus and materializes one boolean column per category. The
// consistency gate runs first, so rule evaluation can assume a total mapping
// from manifest rows to artifacts. Categories are evaluated independently
// and merged only after all complete; given unchanged inputs the run is
// idempotent.
func Classify(opts ClassifyOptions) (*model.ClassificationTable, error) {
	tax := opts.Taxonomy
	if tax == nil {
		tax = Default()
	}

	if err := CheckConsistency(ids(opts.Records), opts.Store); err != nil {
		return nil, err
	}

	// The whole corpus is read up front; pattern rules scan in-memory text
	// rather than shelling out per pattern. An unreadable artifact here means
	// the store changed between the gate and the read.
	artifacts := make(map[int]string, len(opts.Records))
	for _, rec := range opts.Records {
		text, err := opts.Store.Read(rec.ID)
		if err != nil {
			return nil, &IntegrityError{Dir: opts.Store.Dir(), Missing: []int{rec.ID}}
		}
		artifacts[rec.ID] = text
	}

	categories := tax.Categories()
	columns := make([][]bool, len(categories))

	workers := opts.Workers
	if workers <= 0 || workers > len(categories) {
		workers = len(categories)
	}
	catCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ci := range catCh {
				col := make([]bool, len(opts.Records))
				rule := categories[ci].Rule
				for ri, rec := range opts.Records {
					col[ri] = rule.Match(rec, artifacts[rec.ID])
				}
				columns[ci] = col
			}
		}()
	}
	for ci := range categories {
		catCh <- ci
	}
	close(catCh)
	wg.Wait()

	rows := make([]model.ClassificationRow, len(opts.Records))
	for ri, rec := range opts.Records {
		matches := make(map[string]bool, len(categories))
		for ci, cat := range categories {
			matches[cat.Name] = columns[ci][ri]
		}
		rows[ri] = model.ClassificationRow{
			Job:     rec,
			Kind:    rec.Kind(),
			Matches: matches,
		}
	}

	table := &model.ClassificationTable{
		Categories: tax.Names(),
		Rows:       rows,
	}

	if opts.Observer != nil {
		for ci, cat := range categories {
			matched := 0
			for _, v := range columns[ci] {
				if v {
					matched++
				}
			}
			opts.Observer(cat.Name, matched)
		}
	}
	return table, nil
}

func ids(records []model.JobRecord) []int {
	out := make([]int, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.ID)
	}
	return out
}
