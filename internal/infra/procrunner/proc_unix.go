//go:build unix

package procrunner

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureKill puts the child in its own process group so that helpers it
// spawns (prinseq-lite.pl, bowtie2's wrapper scripts) die with it.
func configureKill(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return unix.Kill(-c.Process.Pid, unix.SIGKILL)
	}
}
