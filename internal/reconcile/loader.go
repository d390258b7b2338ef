// Package reconcile loads the primary scored table and backfills the state
// attribute from auxiliary enrolment files when the primary lacks it.
//
// Only a missing primary table is fatal. Every failure while reconciling the
// state attribute degrades to the sentinel value for all rows.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/afi-report/backend/internal/dataset"
	"github.com/afi-report/backend/internal/metrics"
	"github.com/afi-report/backend/internal/storage/models"
	"github.com/afi-report/backend/pkg/logger"
)

const (
	DefaultSentinel = "Unknown"
	DefaultFileCap  = 5
)

var ErrPrimaryMissing = errors.New("primary scored table not found")

type Config struct {
	PrimaryPath string
	Patterns    []string
	FileCap     int
	Sentinel    string
	CacheTTL    time.Duration
}

// MappingCache stores built mappings across process restarts. Any error is
// treated as a miss.
type MappingCache interface {
	GetMapping(ctx context.Context, key string) (*Mapping, bool, error)
	SetMapping(ctx context.Context, key string, m *Mapping, ttl time.Duration) error
}

// Result is a reconciled table plus a description of how it was produced.
type Result struct {
	Table  *dataset.Table
	Report models.ReconciliationReport
}

type Loader struct {
	fs    afero.Fs
	cfg   Config
	cache MappingCache
}

type Option func(*Loader)

func WithMappingCache(cache MappingCache) Option {
	return func(l *Loader) {
		l.cache = cache
	}
}

func NewLoader(fs afero.Fs, cfg Config, opts ...Option) *Loader {
	if cfg.FileCap <= 0 {
		cfg.FileCap = DefaultFileCap
	}
	if cfg.Sentinel == "" {
		cfg.Sentinel = DefaultSentinel
	}

	l := &Loader{fs: fs, cfg: cfg}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the primary table and guarantees a populated state column.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	start := time.Now()

	primary, err := l.readPrimary()
	if err != nil {
		return nil, err
	}

	report := models.ReconciliationReport{
		PrimaryPath: l.cfg.PrimaryPath,
		Rows:        primary.Len(),
	}

	var table *dataset.Table
	if primary.Has(models.ColState) {
		table, err = l.keepPresent(primary, &report)
	} else {
		table, err = l.reconcile(ctx, primary, &report)
	}
	if err != nil {
		logger.Warn("State reconciliation failed, falling back to sentinel",
			zap.String("primary", l.cfg.PrimaryPath),
			zap.Error(err),
		)
		report.Outcome = models.OutcomeFallbackError
		report.Error = err.Error()
		table, err = fillState(primary, l.cfg.Sentinel)
		if err != nil {
			return nil, fmt.Errorf("fill sentinel state: %w", err)
		}
		report.MatchedRows = 0
		report.UnknownRows = table.Len()
	}

	report.LoadedAt = time.Now()
	report.DurationMS = time.Since(start).Milliseconds()

	metrics.ReconciliationTotal.WithLabelValues(string(report.Outcome)).Inc()
	metrics.ReconciledRows.Set(float64(report.Rows))
	metrics.UnknownStateRows.Set(float64(report.UnknownRows))

	logger.Info("Scored table loaded",
		zap.String("primary", l.cfg.PrimaryPath),
		zap.String("outcome", string(report.Outcome)),
		zap.Int("rows", report.Rows),
		zap.Int("matched", report.MatchedRows),
		zap.Int("unknown", report.UnknownRows),
		zap.Strings("files", report.Files),
	)

	return &Result{Table: table, Report: report}, nil
}

func (l *Loader) readPrimary() (*dataset.Table, error) {
	f, err := l.fs.Open(l.cfg.PrimaryPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPrimaryMissing, l.cfg.PrimaryPath)
		}
		return nil, fmt.Errorf("open primary table: %w", err)
	}
	defer f.Close()

	table, err := dataset.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read primary table %s: %w", l.cfg.PrimaryPath, err)
	}

	if table.Has(models.ColDistrict) {
		if deduped, err := table.DropDuplicates(models.ColDistrict); err == nil && deduped.Len() != table.Len() {
			logger.Warn("Primary table has repeated districts",
				zap.Int("rows", table.Len()),
				zap.Int("distinct", deduped.Len()),
			)
		}
	}
	return table, nil
}

func (l *Loader) keepPresent(primary *dataset.Table, report *models.ReconciliationReport) (*dataset.Table, error) {
	table, filled, err := fillBlankStates(primary, l.cfg.Sentinel)
	if err != nil {
		return nil, err
	}
	report.Outcome = models.OutcomePresent
	report.UnknownRows = filled
	report.MatchedRows = table.Len() - filled
	return table, nil
}

// reconcile runs the discovery, mapping and join steps. Any returned error
// sends the caller to the all-sentinel fallback.
func (l *Loader) reconcile(ctx context.Context, primary *dataset.Table, report *models.ReconciliationReport) (table *dataset.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			table = nil
			err = fmt.Errorf("reconcile panic: %v", r)
		}
	}()

	found, err := discover(l.fs, l.cfg.Patterns, l.cfg.FileCap)
	if err != nil {
		return nil, err
	}
	report.Pattern = found.Pattern
	report.Discovered = found.Discovered
	report.Files = found.Files

	if len(found.Files) == 0 {
		logger.Info("No auxiliary mapping files found", zap.Strings("patterns", l.cfg.Patterns))
		table, err := fillState(primary, l.cfg.Sentinel)
		if err != nil {
			return nil, err
		}
		report.Outcome = models.OutcomeNoCandidates
		report.UnknownRows = table.Len()
		return table, nil
	}

	mapping, hit, err := l.mapping(ctx, found.Files)
	if err != nil {
		return nil, err
	}
	report.CacheHit = hit
	report.MappingSize = mapping.Len()

	table, matched, err := join(primary, mapping, l.cfg.Sentinel)
	if err != nil {
		return nil, err
	}
	report.Outcome = models.OutcomeJoined
	report.MatchedRows = matched
	report.UnknownRows = table.Len() - matched
	return table, nil
}

func (l *Loader) mapping(ctx context.Context, files []string) (*Mapping, bool, error) {
	if l.cache == nil {
		m, err := l.buildMapping(files)
		return m, false, err
	}

	key, err := fingerprint(l.fs, files)
	if err != nil {
		return nil, false, err
	}

	if m, ok, err := l.cache.GetMapping(ctx, key); err != nil {
		metrics.CacheMisses.WithLabelValues("mapping").Inc()
		logger.Debug("Mapping cache unavailable", zap.Error(err))
	} else if ok {
		metrics.CacheHits.WithLabelValues("mapping").Inc()
		return m, true, nil
	} else {
		metrics.CacheMisses.WithLabelValues("mapping").Inc()
	}

	m, err := l.buildMapping(files)
	if err != nil {
		return nil, false, err
	}
	if err := l.cache.SetMapping(ctx, key, m, l.cfg.CacheTTL); err != nil {
		logger.Debug("Failed to cache mapping", zap.Error(err))
	}
	return m, false, nil
}

// buildMapping projects (state, district) out of every file, deduplicates
// each projection, concatenates them in file order and keeps the first
// state per district.
func (l *Loader) buildMapping(files []string) (*Mapping, error) {
	frames := make([]*dataset.Table, 0, len(files))
	for _, path := range files {
		frame, err := l.readPairs(path)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}

	all, err := dataset.Concat(frames...)
	if err != nil {
		return nil, err
	}
	return NewMapping(all)
}

func (l *Loader) readPairs(path string) (*dataset.Table, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	pairs, err := dataset.ReadCSVColumns(f, models.ColState, models.ColDistrict)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return pairs.DropDuplicates()
}
