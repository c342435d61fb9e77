package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// daemonEnv marks the detached child so it does not detach again.
const daemonEnv = "FANCTRL_DAEMONIZED"

// IsDaemon reports whether the running process is the detached child created by Daemonize.
func IsDaemon() bool {
	return os.Getenv(daemonEnv) == "1"
}

// Daemonize starts a detached copy of the running binary with the same arguments: new session,
// stdio on /dev/null, working directory "/". The parent is expected to exit 0 when parent is true.
// In the detached child Daemonize only restricts the umask to 027 and returns false.
func Daemonize() (parent bool, err error) {
	if IsDaemon() {
		unix.Umask(0o027)
		return false, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return false, fmt.Errorf("failed to resolve executable: %w", err)
	}
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := daemonCommand(exe, os.Args[1:], os.Environ())
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	if err := cmd.Start(); err != nil {
		return false, fmt.Errorf("failed to start daemon: %w", err)
	}
	return true, cmd.Process.Release()
}

func daemonCommand(exe string, args []string, env []string) *exec.Cmd {
	cmd := exec.Command(exe, args...)
	cmd.Env = append(append([]string(nil), env...), daemonEnv+"=1")
	cmd.Dir = "/"
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
	return cmd
}
