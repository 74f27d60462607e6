//go:build !unix

package procrunner

import "os/exec"

func configureKill(c *exec.Cmd) {}
