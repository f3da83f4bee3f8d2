package sink

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

var compressedSuffixes = []string{".gz", ".gzip", ".zz", ".zlib", ".deflate"}

// File writes each stream to its own file under a directory.
type File struct {
	fs  afero.Fs
	dir string
	log *logrus.Entry
}

func NewFile(fs afero.Fs, dir string) (*File, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if dir == "" {
		return nil, errors.New("output directory cannot be empty")
	}

	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "unable to create output directory '%s'", dir)
	}

	return &File{
		fs:  fs,
		dir: dir,
		log: logrus.WithField("pkg", "sink"),
	}, nil
}

// OutputName maps a source path to the name of its decoded file: a known
// compressed suffix is dropped, anything else gets ".out" appended.
func OutputName(name string) string {
	base := filepath.Base(name)

	for _, suffix := range compressedSuffixes {
		if strings.HasSuffix(strings.ToLower(base), suffix) && len(base) > len(suffix) {
			return base[:len(base)-len(suffix)]
		}
	}

	return base + ".out"
}

func (f *File) Write(name string, data []byte) error {
	path := filepath.Join(f.dir, OutputName(name))

	f.log.WithField("method", "Write").Debugf("writing '%d' bytes to '%s'", len(data), path)

	if err := afero.WriteFile(f.fs, path, data, 0644); err != nil {
		return errors.Wrapf(err, "unable to write '%s'", path)
	}

	return nil
}

func (f *File) Close() error {
	return nil
}
