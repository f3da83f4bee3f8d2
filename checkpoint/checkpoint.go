package checkpoint

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dselans/inflate/checkpoint/types"
	"github.com/dselans/inflate/validate"
)

// Load reads checkpointFile, or creates a fresh checkpoint for sourcePattern
// if the file does not exist yet.
func Load(checkpointFile, sourcePattern string) (*types.Checkpoint, error) {
	startedAt := time.Now()
	logrus.Debugf("checkpoint loading started at '%s'", startedAt)

	defer func() {
		endedAt := time.Now()
		logrus.Debugf("checkpoint loading completed at '%s'", endedAt)
		logrus.Debugf("checkpoint loading took '%s'", endedAt.Sub(startedAt))
	}()

	var createCheckpoint bool

	// Check if checkpoint file exists; if it does not exist - create it,
	// otherwise, try to load it.
	if _, err := os.Stat(checkpointFile); err != nil {
		if os.IsNotExist(err) {
			createCheckpoint = true
		} else {
			return nil, errors.Wrap(err, "unable to stat checkpoint file")
		}
	}

	if createCheckpoint {
		logrus.Debugf("creating checkpoint file '%s'", checkpointFile)
		return create(checkpointFile, sourcePattern)
	}

	logrus.Debugf("loading checkpoint file '%s'", checkpointFile)

	cp, err := load(checkpointFile)
	if err != nil {
		return nil, err
	}

	if cp.SourcePattern != sourcePattern {
		return nil, errors.Errorf("checkpoint '%s' was recorded for source '%s', not '%s'",
			checkpointFile, cp.SourcePattern, sourcePattern)
	}

	return cp, nil
}

func load(checkpointFile string) (*types.Checkpoint, error) {
	data, err := os.ReadFile(checkpointFile)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read checkpoint file")
	}

	cp := &types.Checkpoint{}
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal checkpoint file")
	}

	cp.Mutex = &sync.Mutex{}

	if cp.Completed == nil {
		cp.Completed = make(map[string]*types.Entry)
	}

	if err := validate.Checkpoint(cp); err != nil {
		return nil, errors.Wrap(err, "invalid checkpoint file")
	}

	return cp, nil
}

func create(checkpointFile, sourcePattern string) (*types.Checkpoint, error) {
	cp := types.New(sourcePattern)

	// Try to write checkpoint file
	if err := cp.Save(checkpointFile); err != nil {
		return nil, errors.Wrap(err, "unable to write checkpoint file")
	}

	return cp, nil
}
