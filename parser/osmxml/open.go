package osmxml

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var first error
	for i := len(rc.closers) - 1; i >= 0; i-- {
		if err := rc.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenFile opens an OSM XML file. Files ending with .gz or .bz2 are
// decompressed.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening OSM file")
	}
	rc := &readCloser{closers: []io.Closer{f}}
	r := bufio.NewReaderSize(f, 64*1024)

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "opening %s", path)
		}
		rc.Reader = gz
		rc.closers = append(rc.closers, gz)
	case strings.HasSuffix(path, ".bz2"):
		rc.Reader = bzip2.NewReader(r)
	default:
		rc.Reader = r
	}
	return rc, nil
}
