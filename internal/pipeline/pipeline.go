// Package pipeline drives one pass over the configured calendar sources:
// fetch (with fallback), parse, expand, classify, normalize, and route the
// rows to per-source tables and optionally a merged shared table.
package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"plannercal/internal/classify"
	"plannercal/internal/config"
	"plannercal/internal/ics"
	appLog "plannercal/internal/log"
	"plannercal/internal/model"
	"plannercal/internal/normalize"
	"plannercal/internal/planner"
)

// SourceSummary reports one source's contribution to a run.
type SourceSummary struct {
	Code          string
	Name          string
	Rows          int
	FallbackUsed  bool
	EventsParsed  int
	EventsSkipped int
	Categories    map[model.Category]int
	Err           error
}

// Result aggregates a whole run.
type Result struct {
	Summaries []SourceSummary
	TotalRows int
}

// Runner executes pipeline passes for a fixed configuration.
type Runner struct {
	cfg     *config.Config
	fetcher *ics.Fetcher

	// Now, when set, anchors the date filter instead of the wall clock.
	Now time.Time
}

// New creates a Runner from a validated config.
func New(cfg *config.Config) *Runner {
	return &Runner{
		cfg:     cfg,
		fetcher: ics.NewFetcher(cfg.FetchTimeout(), cfg.FetchRetries),
	}
}

// Run executes one pass. Sources are independent: failure or degraded data
// in one never blocks another. The returned error is non-nil only when the
// run could not start at all; "every source produced zero rows" is visible
// via Result.TotalRows and is the caller's exit-status decision.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if len(r.cfg.Sources) == 0 {
		return nil, errors.New("pipeline: no sources configured")
	}

	now := r.Now
	if now.IsZero() {
		loc, err := r.cfg.Location()
		if err != nil {
			appLog.Warn("unknown timezone, using local clock", "timezone", r.cfg.Timezone)
			loc = time.Local
		}
		now = time.Now().In(loc)
	}

	res := &Result{}

	// Per-output-file tables. Sources may share a file (both schools feed
	// school_events.csv); accumulate first, write once per file.
	tables := make(map[string]*planner.Table)
	fileOrder := make([]string, 0, len(r.cfg.Sources))
	contributors := make(map[string][]int) // file -> summary indexes

	var mergedRows []model.PlannerRow

	for _, src := range r.cfg.Sources {
		sum := r.runSource(ctx, src, now)

		outFile := filepath.Join(r.cfg.OutputDir, src.OutputFile())
		if _, ok := tables[outFile]; !ok {
			tables[outFile] = &planner.Table{}
			fileOrder = append(fileOrder, outFile)
		}
		added := tables[outFile].Merge(sum.rows)
		if added < len(sum.rows) {
			appLog.Debug("in-run duplicates suppressed", "code", src.Code, "suppressed", len(sum.rows)-added)
		}
		mergedRows = append(mergedRows, sum.rows...)

		contributors[outFile] = append(contributors[outFile], len(res.Summaries))
		res.Summaries = append(res.Summaries, sum.SourceSummary)
		res.TotalRows += sum.SourceSummary.Rows
	}

	// Per-source tables are standalone: rebuilt from scratch and atomically
	// overwritten, so past-dated rows drop out naturally each run.
	for _, path := range fileOrder {
		tbl := tables[path]
		tbl.SortByStartDate()
		if err := tbl.Save(path); err != nil {
			appLog.Error("planner table write failed", err, "path", path)
			for _, i := range contributors[path] {
				if res.Summaries[i].Err == nil {
					res.Summaries[i].Err = err
				}
			}
			continue
		}
		appLog.Info("planner table written", "path", path, "rows", len(tbl.Rows))
	}

	// Merged shared table: load prior state, append-only dedup merge, save.
	if r.cfg.MergedFile != "" {
		if err := r.mergeShared(mergedRows); err != nil {
			appLog.Error("merged table update failed", err, "path", r.cfg.MergedFile)
		}
	}

	for _, s := range res.Summaries {
		appLog.Info("source summary",
			"code", s.Code,
			"rows", s.Rows,
			"fallback", s.FallbackUsed,
			"events_parsed", s.EventsParsed,
			"events_skipped", s.EventsSkipped,
			"err", s.Err,
		)
	}

	return res, nil
}

// sourceRun couples a summary with the rows it produced.
type sourceRun struct {
	SourceSummary
	rows []model.PlannerRow
}

func (r *Runner) runSource(ctx context.Context, src config.SourceConfig, now time.Time) sourceRun {
	sum := sourceRun{SourceSummary: SourceSummary{
		Code:       src.Code,
		Name:       src.Name,
		Categories: make(map[model.Category]int),
	}}

	feed := ics.Source{Code: src.Code, URL: src.URL}

	var events []ics.RawEvent

	fetched, err := r.fetcher.Fetch(ctx, feed)
	if err != nil {
		// Degraded mode: substitute the hand-curated fallback dataset.
		appLog.Warn("feed fetch failed, using fallback dataset", "code", src.Code, "reason", err)
		sum.FallbackUsed = true
		events = fallbackFor(src)
	} else {
		parsed, skipped, perr := ics.ParseICS(feed, fetched.Body)
		if perr != nil {
			// Malformed feed: skip this source for the run, keep siblings.
			appLog.Error("feed unparseable, skipping source for this run", perr, "code", src.Code)
			sum.Err = perr
			return sum
		}
		events = parsed
		sum.EventsSkipped = skipped
	}
	sum.EventsParsed = len(events)

	// Materialize any RRULE-bearing events into one-time instances within
	// the run's lookahead window.
	rangeEnd := now.AddDate(0, r.cfg.HorizonMonths, 0)
	events = ics.Materialize(feed, events, now, rangeEnd)

	rules := classify.RulesForKind(src.Kind)
	if len(src.Rules) > 0 {
		rules = classify.RuleSet{Rules: src.Rules, Default: rules.Default}
	}

	norm := normalize.New(src, now, r.cfg.HorizonMonths)

	for _, ev := range events {
		ce := classify.Event{RawEvent: ev, Category: rules.ClassifyEvent(ev)}
		if src.Kind == config.KindObservance {
			ce.Place = classify.PlaceFor(ce.Category)
		}

		row, ok := norm.Row(ce)
		if !ok {
			continue
		}
		sum.Categories[ce.Category]++
		sum.rows = append(sum.rows, row)
	}
	sum.Rows = len(sum.rows)

	return sum
}

func (r *Runner) mergeShared(rows []model.PlannerRow) error {
	path := filepath.Join(r.cfg.OutputDir, r.cfg.MergedFile)

	tbl, err := planner.Load(path)
	if err != nil {
		return err
	}

	added := tbl.Merge(rows)
	if err := tbl.Save(path); err != nil {
		return err
	}

	appLog.Info("merged table updated", "path", path, "added", added, "total", len(tbl.Rows))
	return nil
}
