// Package supervisor holds the process glue of the daemons: PID file locking and detaching from the
// controlling terminal.
package supervisor

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned when another process holds the PID file.
var ErrLocked = errors.New("pid file is locked by another process")

// PIDFile is an exclusively locked file holding the PID of the running daemon.
// The lock is held until Close.
type PIDFile struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// CreatePIDFile creates (or reuses) path with mode 0640, locks it without blocking and writes the
// PID of the calling process into it.
func CreatePIDFile(path string) (*PIDFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to open pid file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("failed to lock pid file: %w", err)
	}

	if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to truncate pid file: %w", err)
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write pid file: %w", err)
	}

	return &PIDFile{file: f, path: path}, nil
}

// Path returns the location of the PID file.
func (p *PIDFile) Path() string {
	return p.path
}

// Close removes the PID file and releases the lock. It is safe to call more than once.
func (p *PIDFile) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return nil
	}
	removeErr := os.Remove(p.path)
	if errors.Is(removeErr, os.ErrNotExist) {
		removeErr = nil
	}
	closeErr := p.file.Close()
	p.file = nil
	return errors.Join(removeErr, closeErr)
}
