package batch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dselans/inflate/checkpoint/types"
	"github.com/dselans/inflate/container"
	"github.com/dselans/inflate/inflate"
)

func (b *Batch) runWorker(
	shutdownCtx context.Context,
	id int,
	jobCh <-chan *Job,
	wjCh chan<- *WriterJob,
) error {
	llog := b.log.WithFields(logrus.Fields{
		"method": "runWorker",
		"id":     id,
	})

	llog.Debug("start")
	defer llog.Debug("exit")

	var numProcessed int

MAIN:
	for {
		select {
		case <-shutdownCtx.Done():
			llog.Debug("received shutdown signal")
			break MAIN
		case job, open := <-jobCh:
			if !open {
				llog.Debug("job channel closed - exiting worker")
				break MAIN
			}

			llog.Debugf("received job for '%s'", job.Path)

			wj, err := b.decodeJob(job, llog)
			if err != nil {
				if !b.cfg.TOML.Config.ContinueOnError {
					return errors.Wrapf(err, "unable to decode '%s'", job.Path)
				}

				llog.Errorf("unable to decode '%s': %v", job.Path, err)
				b.updateReport(func(r *Report) { r.Failed++ })

				continue
			}

			numProcessed++

			select {
			case <-shutdownCtx.Done():
				llog.Debug("received shutdown signal")
				break MAIN
			case wjCh <- wj:
			}
		}
	}

	llog.Debugf("handled '%d' jobs", numProcessed)

	return nil
}

// decodeJob runs one decode session over the job's file.
func (b *Batch) decodeJob(j *Job, llog *logrus.Entry) (*WriterJob, error) {
	f, err := b.fs.Open(j.Path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open source file")
	}
	defer f.Close()

	res, err := container.Decode(f, b.format, &inflate.Options{
		MaxOutputSize: b.cfg.TOML.Config.MaxOutputSize,
		Log:           llog.WithField("file", j.Path),
	})
	if err != nil {
		return nil, err
	}

	checksum := sha256.Sum256(res.Data)

	llog.Debugf("decoded '%s' (%s): '%d' blocks, '%d' -> '%d' bytes",
		j.Path, res.Format, res.Stats.Blocks(), res.Stats.BytesIn, res.Stats.BytesOut)

	return &WriterJob{
		Path: j.Path,
		Data: res.Data,
		Entry: &types.Entry{
			BytesIn:     res.Stats.BytesIn,
			BytesOut:    int64(res.Stats.BytesOut),
			SHA256:      hex.EncodeToString(checksum[:]),
			CompletedAt: time.Now(),
		},
	}, nil
}
