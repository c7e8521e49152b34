//go:build !unix

package bridge

import "os/exec"

func configureProcessGroup(cmd *exec.Cmd) {}
