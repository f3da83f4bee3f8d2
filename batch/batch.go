// Package batch decodes many compressed files concurrently, one independent
// decode session per file, and records progress in a checkpoint so an
// interrupted run can resume.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/dselans/inflate/checkpoint"
	"github.com/dselans/inflate/checkpoint/types"
	"github.com/dselans/inflate/config"
	"github.com/dselans/inflate/container"
	"github.com/dselans/inflate/sink"
)

const shutdownTimeout = 5 * time.Second

type Job struct {
	Path string
}

type WriterJob struct {
	Path  string
	Data  []byte
	Entry *types.Entry
}

type CheckpointJob struct {
	Path  string
	Entry *types.Entry
}

// Report summarizes a run.
type Report struct {
	Files    int
	Skipped  int
	Failed   int
	BytesIn  int64
	BytesOut int64
}

type Batch struct {
	cfg    *config.Config
	fs     afero.Fs
	sink   sink.Sink
	format container.Format
	cp     *types.Checkpoint
	log    *logrus.Entry
	last   time.Time

	reportMu *sync.Mutex
	report   *Report
}

// New prepares a batch run over cfg.TOML.Source.Files on fs, writing to s.
func New(cfg *config.Config, fs afero.Fs, s sink.Sink) (*Batch, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "error validating config")
	}

	if fs == nil || s == nil {
		return nil, errors.New("filesystem and sink cannot be nil")
	}

	format, err := container.ParseFormat(cfg.TOML.Source.Format)
	if err != nil {
		return nil, errors.Wrap(err, "invalid source format")
	}

	var cp *types.Checkpoint

	if cfg.TOML.Config.DisableCheckpointing || cfg.CLI.DisableResume {
		cp = types.New(cfg.TOML.Source.Files)
	} else {
		// Load checkpoint (or create if it doesn't exist)
		cp, err = checkpoint.Load(cfg.TOML.Config.CheckpointFile, cfg.TOML.Source.Files)
		if err != nil {
			return nil, errors.Wrap(err, "unable to load checkpoint file")
		}
	}

	return &Batch{
		cfg:      cfg,
		fs:       fs,
		sink:     s,
		format:   format,
		cp:       cp,
		log:      logrus.WithField("pkg", "batch"),
		reportMu: &sync.Mutex{},
		report:   &Report{},
	}, nil
}

// Run decodes every matched file that the checkpoint does not already list.
// The first decode failure stops the run unless config.continue_on_error is
// set.
func (b *Batch) Run(shutdownCtx context.Context) (*Report, error) {
	ctx, cancel := context.WithCancel(shutdownCtx)
	defer cancel()

	numWorkers := b.cfg.TOML.Config.NumWorkers

	wg := &sync.WaitGroup{}
	errCh := make(chan error, numWorkers+3)
	workCh := make(chan *Job, numWorkers)
	writerCh := make(chan *WriterJob, numWorkers)
	cpCh := make(chan *CheckpointJob, 1000)
	done := make(chan struct{})

	// Reader, writer and checkpointer
	stages := &sync.WaitGroup{}
	stages.Add(3)

	// Launch workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)

		go func(id int) {
			b.log.Debugf("worker %d start", id)
			defer b.log.Debugf("worker %d exit", id)
			defer wg.Done()

			if err := b.runWorker(ctx, id, workCh, writerCh); err != nil {
				errCh <- errors.Wrapf(err, "error in worker %d", id)
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(writerCh)
	}()

	go func() {
		wg.Wait()
		stages.Wait()
		close(done)
	}()

	// Launch reader
	go func() {
		b.log.Debug("reader start")
		defer b.log.Debug("reader exit")
		defer stages.Done()

		if err := b.runReader(ctx, workCh); err != nil {
			errCh <- errors.Wrap(err, "error in reader")
		}
	}()

	// Launch writer
	go func() {
		b.log.Debug("writer start")
		defer b.log.Debug("writer exit")
		defer stages.Done()

		if err := b.runWriter(ctx, writerCh, cpCh); err != nil {
			errCh <- errors.Wrap(err, "error in writer")
		}
	}()

	// Launch checkpointer
	go func() {
		b.log.Debug("checkpointer start")
		defer b.log.Debug("checkpointer exit")
		defer stages.Done()

		if err := b.runCheckpointer(cpCh); err != nil {
			errCh <- errors.Wrap(err, "error in checkpointer")
		}
	}()

	var runErr error

	// Read from errCh to detect errors
	select {
	case <-done:
		// Every stage has returned; errors sent before that are buffered
		select {
		case runErr = <-errCh:
		default:
		}
	case runErr = <-errCh:
		cancel()

		if err := b.waitPipeline(done); err != nil {
			b.log.Warn(err)
		}
	}

	report := b.Report()

	if runErr != nil {
		return report, runErr
	}

	if err := shutdownCtx.Err(); err != nil {
		return report, errors.Wrap(err, "batch run interrupted")
	}

	b.cp.Finish()

	if err := b.saveCheckpoint(true); err != nil {
		return report, errors.Wrap(err, "unable to save final checkpoint")
	}

	b.log.Debug("batch run completed")

	return report, nil
}

// Report returns a copy of the counters collected so far.
func (b *Batch) Report() *Report {
	b.reportMu.Lock()
	defer b.reportMu.Unlock()

	r := *b.report

	return &r
}

func (b *Batch) updateReport(fn func(r *Report)) {
	b.reportMu.Lock()
	defer b.reportMu.Unlock()

	fn(b.report)
}

func (b *Batch) waitPipeline(done <-chan struct{}) error {
	select {
	case <-done:
		b.log.Debug("pipeline has exited")
		return nil
	case <-time.After(shutdownTimeout):
		return errors.New("timed out waiting for workers and/or checkpointer to exit")
	}
}
