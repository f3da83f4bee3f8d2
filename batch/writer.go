package batch

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// runWriter hands decoded data to the sink and queues a checkpoint for each
// file written. It closes cpChan when done.
func (b *Batch) runWriter(shutdownCtx context.Context, writerCh <-chan *WriterJob, cpChan chan<- *CheckpointJob) error {
	llog := b.log.WithFields(logrus.Fields{
		"method": "runWriter",
	})

	llog.Debug("start")
	defer llog.Debug("exit")

	defer close(cpChan)

	var numWritten int

MAIN:
	for {
		select {
		case <-shutdownCtx.Done():
			llog.Debug("received shutdown signal")
			break MAIN
		case job, open := <-writerCh:
			if !open {
				llog.Debug("writer channel closed - exiting writer")
				break MAIN
			}

			if err := b.sink.Write(job.Path, job.Data); err != nil {
				llog.Errorf("error writing job: %v", err)
				return errors.Wrapf(err, "error writing output for '%s'", job.Path)
			}

			b.updateReport(func(r *Report) {
				r.Files++
				r.BytesIn += job.Entry.BytesIn
				r.BytesOut += job.Entry.BytesOut
			})

			// Write checkpoint
			cpChan <- &CheckpointJob{
				Path:  job.Path,
				Entry: job.Entry,
			}

			numWritten++
		}
	}

	llog.Debugf("handled '%d' jobs", numWritten)

	return nil
}
