package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dselans/inflate/checkpoint/types"
)

const sum = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestCheckpoint(t *testing.T) {
	assert.Error(t, Checkpoint(nil))

	cp := types.New("*.gz")
	assert.NoError(t, Checkpoint(cp))

	cp.SourcePattern = ""
	assert.Error(t, Checkpoint(cp))

	cp = types.New("*.gz")
	cp.LastUpdated = cp.StartedAt.Add(-time.Second)
	assert.Error(t, Checkpoint(cp))

	cp = types.New("*.gz")
	cp.MarkCompleted("a.gz", nil)
	assert.Error(t, Checkpoint(cp))
}

func TestEntry(t *testing.T) {
	now := time.Now()

	assert.NoError(t, Entry(&types.Entry{BytesIn: 1, BytesOut: 2, SHA256: sum, CompletedAt: now}))
	assert.Error(t, Entry(&types.Entry{BytesIn: -1, SHA256: sum, CompletedAt: now}))
	assert.Error(t, Entry(&types.Entry{SHA256: sum[:10], CompletedAt: now}))
	assert.Error(t, Entry(&types.Entry{SHA256: "zz" + sum[2:], CompletedAt: now}))
	assert.Error(t, Entry(&types.Entry{SHA256: sum}))
	assert.Error(t, Entry(&types.Entry{SHA256: sum, CompletedAt: now.Add(time.Hour)}))
}
