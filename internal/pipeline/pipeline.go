// Package pipeline orchestrates one ingestion cycle: conditional fetch,
// table parse, blob and record persistence, and the ETag bookkeeping that
// makes the next cycle cheap.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/geraldbaeck/luftguete/internal/database"
	"github.com/geraldbaeck/luftguete/internal/lumes"
	"github.com/geraldbaeck/luftguete/internal/source"
	"github.com/geraldbaeck/luftguete/internal/storage"
)

// Status classifies the outcome of a run.
type Status int

const (
	StatusSkipped Status = iota
	StatusIngested
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusIngested:
		return "ingested"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result reports what a run did. Count is the number of datapoints parsed
// from the file (not only the ones that were new to the record store).
type Result struct {
	Status Status
	Count  int
}

// SourceFetcher is the conditional-fetch capability the pipeline needs.
type SourceFetcher interface {
	Fetch(ctx context.Context, etag string) (*source.Result, error)
}

// Options tune one pipeline instance.
type Options struct {
	// Location is the feed's implicit timezone.
	Location *time.Location

	// FlushTrailing forwards to lumes.ParserOptions.
	FlushTrailing bool

	// IDCacheSize bounds the cache of recently written datapoint ids.
	// Consecutive files overlap heavily; ids whose readings are
	// unchanged since the last run are not upserted again.
	IDCacheSize int
}

// Pipeline runs ingestion cycles. Safe for sequential use only; the
// advisory lease in the repository rejects overlapping runs.
type Pipeline struct {
	fetcher SourceFetcher
	repo    database.Repository
	blobs   storage.BlobStore
	logger  *logrus.Logger
	metrics *Metrics
	opts    Options

	seen *lru.Cache[string, uint64]
}

func New(
	fetcher SourceFetcher,
	repo database.Repository,
	blobs storage.BlobStore,
	logger *logrus.Logger,
	metrics *Metrics,
	opts Options,
) (*Pipeline, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.IDCacheSize <= 0 {
		opts.IDCacheSize = 4096
	}
	seen, err := lru.New[string, uint64](opts.IDCacheSize)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		fetcher: fetcher,
		repo:    repo,
		blobs:   blobs,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
		seen:    seen,
	}, nil
}

// Run executes one ingestion cycle. The stored ETag is only advanced
// after the raw blob, the dataset blob and every record write succeeded,
// so a partial failure makes the next cycle re-ingest the same file
// instead of silently losing it.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	log := p.logger.WithField("run_id", uuid.NewString())

	res, err := p.run(ctx, log)

	elapsed := time.Since(start)
	p.metrics.observeRun(res.Status.String(), res.Count, elapsed)
	if err != nil {
		log.WithError(err).WithField("duration", elapsed).Error("Ingestion run failed")
	} else {
		log.WithFields(logrus.Fields{
			"outcome":    res.Status.String(),
			"datapoints": res.Count,
			"duration":   elapsed,
		}).Info("Ingestion run finished")
	}
	return res, err
}

func (p *Pipeline) run(ctx context.Context, log *logrus.Entry) (Result, error) {
	acquired, err := p.repo.AcquireLease(ctx)
	if err != nil {
		return Result{Status: StatusFailed}, fmt.Errorf("acquire run lease: %w", err)
	}
	if !acquired {
		log.Warn("Another run holds the ingestion lease, skipping")
		return Result{Status: StatusSkipped}, nil
	}
	defer func() {
		if err := p.repo.ReleaseLease(ctx); err != nil {
			log.WithError(err).Warn("Failed to release ingestion lease")
		}
	}()

	etag, err := p.repo.LastETag(ctx)
	if err != nil {
		return Result{Status: StatusFailed}, err
	}

	fetched, err := p.fetcher.Fetch(ctx, etag)
	if err != nil {
		return Result{Status: StatusFailed}, err
	}
	if !fetched.Modified {
		return Result{Status: StatusSkipped}, nil
	}

	file, err := lumes.SplitFile(fetched.Body, p.opts.Location)
	if err != nil {
		return Result{Status: StatusFailed}, err
	}

	specs := lumes.BuildColumnSpecs(file.Names, file.Types, file.Units)
	parser := lumes.NewParser(specs, lumes.ParserOptions{
		Location:      p.opts.Location,
		FlushTrailing: p.opts.FlushTrailing,
	})
	points, err := parser.ParseRows(file.DataRows)
	if err != nil {
		return Result{Status: StatusFailed}, err
	}

	log.WithFields(logrus.Fields{
		"published_at": file.PublishedAt,
		"rows":         len(file.DataRows),
		"datapoints":   len(points),
	}).Debug("Parsed feed file")

	dataset, err := json.Marshal(points)
	if err != nil {
		return Result{Status: StatusFailed}, fmt.Errorf("encode dataset: %w", err)
	}

	rawKey := storage.BlobKey(file.PublishedAt, storage.RawSuffix)
	if err := p.blobs.Put(ctx, rawKey, []byte(fetched.Body), "text/csv"); err != nil {
		return Result{Status: StatusFailed}, err
	}
	datasetKey := storage.BlobKey(file.PublishedAt, storage.DatasetSuffix)
	if err := p.blobs.Put(ctx, datasetKey, dataset, "application/json"); err != nil {
		return Result{Status: StatusFailed}, err
	}

	fresh, prints := p.filterSeen(points)
	if err := p.repo.UpsertDatapoints(ctx, fresh); err != nil {
		return Result{Status: StatusFailed}, err
	}
	for i, dp := range fresh {
		p.seen.Add(dp.ID, prints[i])
	}
	if skipped := len(points) - len(fresh); skipped > 0 {
		log.WithField("skipped", skipped).Debug("Skipped unchanged datapoints")
	}

	if err := p.repo.StoreETag(ctx, fetched.ETag); err != nil {
		return Result{Status: StatusFailed}, err
	}

	return Result{Status: StatusIngested, Count: len(points)}, nil
}

// filterSeen drops datapoints whose id and readings match what the last
// runs already wrote. The fingerprint covers the full serialized point,
// so a revised value under an existing id is still written.
func (p *Pipeline) filterSeen(points []lumes.Datapoint) ([]lumes.Datapoint, []uint64) {
	fresh := make([]lumes.Datapoint, 0, len(points))
	prints := make([]uint64, 0, len(points))
	for _, dp := range points {
		fp := fingerprint(dp)
		if prev, ok := p.seen.Get(dp.ID); ok && prev == fp {
			continue
		}
		fresh = append(fresh, dp)
		prints = append(prints, fp)
	}
	return fresh, prints
}

func fingerprint(dp lumes.Datapoint) uint64 {
	b, err := json.Marshal(dp)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}
