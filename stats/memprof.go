package stats

import (
	"fmt"
	"os"
	"path"
	"runtime/pprof"
	"time"

	"github.com/pkg/errors"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/log"
)

// MemProfiler writes a heap profile into dir every interval until the
// returned stop func is called. Stop writes a last profile.
func MemProfiler(dir string, interval time.Duration) (func(), error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, errors.Wrap(err, "creating memprofile dir")
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			last := false
			select {
			case <-stop:
				last = true
			case <-ticker.C:
			}
			filename := path.Join(
				dir,
				fmt.Sprintf("memprof-%03d.pprof", i),
			)
			if err := writeHeapProfile(filename); err != nil {
				log.Errorf("writing heap profile: %s", err)
				return
			}
			if last {
				return
			}
		}
	}()
	return func() {
		close(stop)
		<-done
	}, nil
}

func writeHeapProfile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := pprof.WriteHeapProfile(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
