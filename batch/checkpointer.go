package batch

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// runCheckpointer records completed files and periodically writes the
// checkpoint to disk.
//
// NOTE: This does not watch the shutdown context; it drains cpChan until the
// writer closes it.
func (b *Batch) runCheckpointer(cpChan <-chan *CheckpointJob) error {
	llog := b.log.WithFields(logrus.Fields{
		"method": "runCheckpointer",
	})

	llog.Debug("start")
	defer llog.Debug("exit")

	for cp := range cpChan {
		llog.Debugf("received checkpoint for '%s'", cp.Path)

		b.cp.MarkCompleted(cp.Path, cp.Entry)

		if err := b.saveCheckpoint(false); err != nil {
			llog.Errorf("error saving checkpoint after '%s': %v", cp.Path, err)
		}
	}

	llog.Debug("checkpoint channel closed - saving final checkpoint")

	return b.saveCheckpoint(true)
}

// saveCheckpoint writes the checkpoint if checkpointing is enabled and either
// force is set or config.checkpoint_interval has passed since the last save.
func (b *Batch) saveCheckpoint(force bool) error {
	llog := b.log.WithFields(logrus.Fields{
		"method": "saveCheckpoint",
	})

	if b.cfg.TOML.Config.DisableCheckpointing {
		return nil
	}

	interval := time.Duration(b.cfg.TOML.Config.CheckpointInterval)

	if !force && !b.last.IsZero() && b.last.Add(interval).After(time.Now()) {
		llog.Debugf("skipping checkpoint save, last save was %v ago", time.Since(b.last))
		return nil
	}

	llog.Debugf("saving checkpoint to '%s'", b.cfg.TOML.Config.CheckpointFile)

	if err := b.cp.Save(b.cfg.TOML.Config.CheckpointFile); err != nil {
		return errors.Wrap(err, "unable to save checkpoint")
	}

	// Note that a checkpoint save has occurred
	b.last = time.Now()

	return nil
}
