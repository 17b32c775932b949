package health

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-faster/errors"
)

// Pinger is implemented by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck reports the database unhealthy when it does not answer a ping.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping")
		}
		return nil
	}
}

// WritableDirCheck reports unhealthy when a file cannot be created in dir.
// Used for the upload and log directories.
func WritableDirCheck(dir string) CheckFunc {
	return func(_ context.Context) error {
		f, err := os.CreateTemp(dir, ".probe-*")
		if err != nil {
			return errors.Wrapf(err, "write to %s", dir)
		}
		name := f.Name()
		_ = f.Close()
		return os.Remove(filepath.Clean(name))
	}
}

// GoroutineCountCheck reports unhealthy above threshold goroutines.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}
