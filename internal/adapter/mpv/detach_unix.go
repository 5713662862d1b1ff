//go:build !windows

package mpv

import (
	"os/exec"
	"syscall"
)

// detach puts the player in its own session so terminal signals aimed at
// the UI do not stop playback.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
