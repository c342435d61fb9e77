// Package watchdog feeds a Linux watchdog device.
package watchdog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

const (
	// DefaultPath is the default watchdog device
	DefaultPath = "/dev/watchdog"

	heartbeat  = "x"
	magicClose = "V"
)

// Watchdog keeps a hardware watchdog from firing while the control loop is alive.
// A zero or disabled Watchdog is a valid no-op.
type Watchdog struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// Open opens the watchdog device at path. An empty path or a missing device yields a disabled
// watchdog; only systems with a watchdog can fail here.
func Open(path string) (*Watchdog, error) {
	if path == "" {
		return &Watchdog{}, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Watchdog{path: path}, nil
		}
		return nil, err
	}
	return &Watchdog{file: f, path: path}, nil
}

// Enabled reports whether a watchdog device is open.
func (w *Watchdog) Enabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file != nil
}

// Kick signals liveness.
func (w *Watchdog) Kick() error {
	return w.write(heartbeat)
}

// Disarm writes the magic close character so the watchdog stops once the device is released, then
// releases it.
func (w *Watchdog) Disarm() error {
	if err := w.write(magicClose); err != nil {
		return errors.Join(err, w.Close())
	}
	return w.Close()
}

// Release disarms the watchdog when disarm is set, otherwise it only closes the device and the
// watchdog fires unless another process takes over.
func (w *Watchdog) Release(disarm bool) error {
	if disarm {
		return w.Disarm()
	}
	return w.Close()
}

// Close releases the device without disarming it.
func (w *Watchdog) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *Watchdog) write(s string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	if _, err := w.file.WriteString(s); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return nil
}
