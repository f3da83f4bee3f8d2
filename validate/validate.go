package validate

import (
	"encoding/hex"
	"time"

	"github.com/pkg/errors"

	"github.com/dselans/inflate/checkpoint/types"
)

func Checkpoint(cp *types.Checkpoint) error {
	if cp == nil {
		return errors.New("checkpoint is nil")
	}

	if cp.SourcePattern == "" {
		return errors.New("checkpoint source_pattern cannot be empty")
	}

	if cp.StartedAt.IsZero() {
		return errors.New("checkpoint started_at cannot be empty")
	}

	if cp.LastUpdated.Before(cp.StartedAt) {
		return errors.New("checkpoint last_updated is before started_at")
	}

	for path, e := range cp.Completed {
		if err := Entry(e); err != nil {
			return errors.Wrapf(err, "invalid entry for '%s'", path)
		}
	}

	return nil
}

func Entry(e *types.Entry) error {
	if e == nil {
		return errors.New("entry is nil")
	}

	if e.BytesIn < 0 || e.BytesOut < 0 {
		return errors.New("entry sizes cannot be negative")
	}

	sum, err := hex.DecodeString(e.SHA256)
	if err != nil || len(sum) != 32 {
		return errors.Errorf("entry sha256 '%s' is not a hex encoded sha256 sum", e.SHA256)
	}

	if e.CompletedAt.IsZero() || e.CompletedAt.After(time.Now().Add(time.Minute)) {
		return errors.New("entry completed_at is unset or in the future")
	}

	return nil
}
