package types

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Entry records one successfully decoded source file.
type Entry struct {
	BytesIn     int64     `json:"bytes_in"`
	BytesOut    int64     `json:"bytes_out"`
	SHA256      string    `json:"sha256"` // of the decoded output
	CompletedAt time.Time `json:"completed_at"`
}

// Checkpoint contains checkpoint info
type Checkpoint struct {
	SourcePattern string            `json:"source_pattern"`
	Completed     map[string]*Entry `json:"completed"`
	StartedAt     time.Time         `json:"started_at"`
	LastUpdated   time.Time         `json:"last_updated"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`

	*sync.Mutex `json:"-"`
}

func New(sourcePattern string) *Checkpoint {
	return &Checkpoint{
		SourcePattern: sourcePattern,
		Completed:     make(map[string]*Entry),
		StartedAt:     time.Now(),
		LastUpdated:   time.Now(),
		Mutex:         &sync.Mutex{},
	}
}

// MarkCompleted records path as done.
func (cp *Checkpoint) MarkCompleted(path string, e *Entry) {
	cp.Lock()
	defer cp.Unlock()

	cp.Completed[path] = e
	cp.LastUpdated = time.Now()
}

func (cp *Checkpoint) IsCompleted(path string) bool {
	cp.Lock()
	defer cp.Unlock()

	_, ok := cp.Completed[path]

	return ok
}

// Finish sets CompletedAt; the run covered every matched file.
func (cp *Checkpoint) Finish() {
	cp.Lock()
	defer cp.Unlock()

	now := time.Now()
	cp.CompletedAt = &now
	cp.LastUpdated = now
}

// Save writes the checkpoint to a temp file next to checkpointFile and
// renames it into place.
func (cp *Checkpoint) Save(checkpointFile string) error {
	cp.Lock()
	defer cp.Unlock()

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to marshal checkpoint file")
	}

	tmp, err := os.CreateTemp(filepath.Dir(checkpointFile), filepath.Base(checkpointFile)+".*")
	if err != nil {
		return errors.Wrap(err, "unable to create temp checkpoint file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "unable to write checkpoint file")
	}

	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "unable to close temp checkpoint file")
	}

	if err := os.Rename(tmp.Name(), checkpointFile); err != nil {
		return errors.Wrap(err, "unable to move checkpoint file into place")
	}

	return nil
}
