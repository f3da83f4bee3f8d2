package batch

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// runReader expands the source pattern and feeds every file that still needs
// decoding to the workers. It closes workCh when done.
func (b *Batch) runReader(shutdownCtx context.Context, workCh chan<- *Job) error {
	llog := b.log.WithFields(logrus.Fields{
		"method": "runReader",
	})

	llog.Debug("start")
	defer llog.Debug("exit")

	defer close(workCh)

	matches, err := afero.Glob(b.fs, b.cfg.TOML.Source.Files)
	if err != nil {
		return errors.Wrap(err, "unable to expand source pattern")
	}

	sort.Strings(matches)

	llog.Debugf("pattern '%s' matched '%d' files", b.cfg.TOML.Source.Files, len(matches))

	var numQueued int

MAIN:
	for _, path := range matches {
		info, err := b.fs.Stat(path)
		if err != nil {
			return errors.Wrapf(err, "unable to stat '%s'", path)
		}

		if info.IsDir() {
			continue
		}

		if b.cp.IsCompleted(path) {
			llog.Debugf("skipping '%s', already in checkpoint", path)
			b.updateReport(func(r *Report) { r.Skipped++ })

			continue
		}

		select {
		case <-shutdownCtx.Done():
			llog.Debug("received shutdown signal")
			break MAIN
		case workCh <- &Job{Path: path}:
			numQueued++
		}
	}

	llog.Debugf("queued '%d' jobs", numQueued)

	return nil
}
