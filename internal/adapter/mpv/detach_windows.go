//go:build windows

package mpv

import "os/exec"

// Connector refuses Windows before anything is launched
func detach(cmd *exec.Cmd) {}
