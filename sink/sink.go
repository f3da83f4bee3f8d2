// Package sink holds the places decoded output can be written to.
package sink

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/dselans/inflate/config"
)

// Sink receives decoded streams. Implementations are used from a single
// writer goroutine.
type Sink interface {
	// Write stores data decoded from the source called name.
	Write(name string, data []byte) error
	Close() error
}

// New builds the sink described by the [destination] config section.
func New(d *config.TOMLDestination, fs afero.Fs) (Sink, error) {
	if d == nil {
		return nil, errors.New("destination cannot be nil")
	}

	switch d.Type {
	case "file":
		return NewFile(fs, d.Dir)
	case "redis":
		return NewRedis(&RedisOptions{
			Addr:      d.Addr,
			Password:  d.Password,
			DB:        d.DB,
			KeyPrefix: d.KeyPrefix,
			TTL:       d.TTL.Duration(),
		})
	case "discard":
		return &Discard{}, nil
	default:
		return nil, errors.Errorf("unknown destination type '%s'", d.Type)
	}
}
