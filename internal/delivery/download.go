package delivery

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/catalog"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/composite"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/dataset"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/indexes"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/points"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/sentinel"
)

type DownloadOptions struct {
	Input         string
	Output        string
	Start         time.Time
	End           time.Time
	MaxCloudCover float64
	BufferMeters  float64
	IDProperty    string
	LabelProperty string
	Normalization dataset.Normalization
	Workers       int
	Append        bool

	// Progress receives the progress bar, nil disables it.
	Progress io.Writer
}

type DownloadResult struct {
	Output  string
	Points  int
	Rows    int
	Written bool

	// EmptyMonths counts (point, month) pairs without usable imagery.
	EmptyMonths int
	// Dropped counts composites discarded because a band was missing.
	Dropped int
}

type Downloader struct {
	searcher catalog.Searcher
	sampler  sentinel.Sampler
	log      *logrus.Entry
}

func NewDownloader(searcher catalog.Searcher, sampler sentinel.Sampler, log *logrus.Entry) *Downloader {
	return &Downloader{searcher: searcher, sampler: sampler, log: log}
}

type pointResult struct {
	rows        []dataset.Observation
	emptyMonths int
	dropped     int
}

// Download loads the points, builds one row per point and month with usable
// imagery and writes them to opts.Output. Nothing is written when a remote
// call fails or when no row was produced.
func (d *Downloader) Download(ctx context.Context, opts DownloadOptions) (DownloadResult, error) {
	result := DownloadResult{Output: opts.Output}

	pts, err := points.Load(opts.Input, points.LoadOptions{IDProperty: opts.IDProperty, LabelProperty: opts.LabelProperty})
	if err != nil {
		return result, errors.Wrap(err, "failed to load points")
	}
	result.Points = len(pts)

	months := composite.Months(opts.Start, opts.End)
	d.log.WithFields(logrus.Fields{
		"points": len(pts),
		"months": len(months),
		"start":  opts.Start.Format("2006-01-02"),
		"end":    opts.End.Format("2006-01-02"),
	}).Info("Starting download")

	results, err := d.collect(ctx, pts, months, opts)
	if err != nil {
		return result, err
	}

	var rows []dataset.Observation
	for _, r := range results {
		rows = append(rows, r.rows...)
		result.EmptyMonths += r.emptyMonths
		result.Dropped += r.dropped
	}
	result.Rows = len(rows)

	if len(rows) == 0 {
		d.log.Warn("No usable imagery for any point and month, nothing exported")
		return result, nil
	}

	rows, err = dataset.Normalize(rows, opts.Normalization)
	if err != nil {
		return result, err
	}
	if err := dataset.Export(opts.Output, rows, opts.Append); err != nil {
		return result, errors.Wrapf(err, "failed to export %s", opts.Output)
	}
	result.Written = true

	d.log.WithFields(logrus.Fields{
		"output":       opts.Output,
		"rows":         result.Rows,
		"empty_months": result.EmptyMonths,
		"dropped":      result.Dropped,
	}).Info("Download finished")
	return result, nil
}

// collect processes the points on a worker pool. Results are stored by point
// position so the output order does not depend on the number of workers. The
// first error cancels the remaining points.
func (d *Downloader) collect(ctx context.Context, pts []points.Point, months []composite.Month, opts DownloadOptions) ([]pointResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		results  = make([]pointResult, len(pts))
		bar      = newProgressBar(opts.Progress, len(pts))
		wp       = workerpool.New(workers)
		firstErr error
		once     sync.Once
	)

	for i, p := range pts {
		i, p := i, p // per-iteration copies; module targets go 1.21
		wp.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			r, err := d.processPoint(ctx, p, months, opts)
			if err != nil {
				once.Do(func() {
					firstErr = errors.Wrapf(err, "point %s (feature %d)", p.ID, p.Index)
					cancel()
				})
				return
			}
			results[i] = r
			_ = bar.Add(1)
		})
	}
	wp.StopWait()
	_ = bar.Finish()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *Downloader) processPoint(ctx context.Context, p points.Point, months []composite.Month, opts DownloadOptions) (pointResult, error) {
	var r pointResult
	bound := catalog.BoundAround(p.Orb(), opts.BufferMeters)

	for _, month := range months {
		log := d.log.WithFields(logrus.Fields{"point_id": p.ID, "feature": p.Index, "month": month.String()})

		from, to := composite.MonthRange(month, opts.Start, opts.End)
		scenes, err := d.searcher.Search(ctx, catalog.Query{
			Bound:         bound,
			Start:         from,
			End:           to,
			MaxCloudCover: opts.MaxCloudCover,
		})
		if err != nil {
			return r, errors.Wrapf(err, "month %s", month)
		}

		scenes = composite.GroupScenes(scenes)[month]
		if len(scenes) == 0 {
			log.Debug("No scenes found")
			r.emptyMonths++
			continue
		}

		samples := make([]sentinel.Sample, 0, len(scenes))
		for _, scene := range scenes {
			s, err := d.sampler.Sample(ctx, p, scene.Day())
			if err != nil {
				return r, errors.Wrapf(err, "scene %s", scene.ID)
			}
			if !s.Valid {
				log.WithField("scene", scene.ID).Debugf("Skipping sample: %s", s.Reason)
			}
			samples = append(samples, s)
		}

		c, ok := composite.Median(samples, month)
		if !ok {
			log.WithField("scenes", len(scenes)).Debug("No valid sample")
			r.emptyMonths++
			continue
		}

		if missing := c.Bands.Missing(); len(missing) > 0 {
			log.WithField("bands", strings.Join(missing, ",")).Warn("Dropping composite with missing bands")
			r.dropped++
			continue
		}

		idx, err := indexes.Compute(c.Bands)
		if errors.Is(err, indexes.ErrMissingBand) {
			log.WithError(err).Warn("Dropping composite")
			r.dropped++
			continue
		}
		if err != nil {
			return r, errors.Wrapf(err, "month %s", month)
		}

		r.rows = append(r.rows, dataset.NewObservation(p, c, idx))
	}
	return r, nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	if w == nil {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions64(int64(total),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Downloading points"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
	)
}
