package mpv

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Launcher starts an idle mpv process listening on an IPC socket
type Launcher struct {
	command string   // configured player command, empty for auto-detection
	args    []string // additional arguments for the player
	socket  string
	logger  *slog.Logger
}

// candidateCommands defines where to look for mpv when none is configured
var candidateCommands = map[string][]string{
	"darwin": {"mpv", "/opt/homebrew/bin/mpv", "/usr/local/bin/mpv", "/Applications/mpv.app/Contents/MacOS/mpv"},
	"linux":  {"mpv", "/usr/bin/mpv", "/usr/local/bin/mpv"},
}

// ErrUnsupportedPlatform is returned where mpv's IPC server is a named pipe
// rather than a unix socket.
var ErrUnsupportedPlatform = errors.New("mpv IPC requires a unix socket platform")

func supportedPlatform(goos string) bool {
	return goos != "windows"
}

// NewLauncher creates a launcher for the given socket path
func NewLauncher(command string, args []string, socket string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command: command,
		args:    args,
		socket:  socket,
		logger:  logger,
	}
}

// buildArgs returns the full argument list for an idle, audio-only player.
// User args come last so they can override the defaults.
func (l *Launcher) buildArgs() []string {
	args := []string{
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--force-window=no",
		"--input-ipc-server=" + l.socket,
	}
	return append(args, l.args...)
}

// resolveCommand picks the configured command or the first candidate found
func (l *Launcher) resolveCommand() (string, error) {
	if l.command != "" {
		path, err := exec.LookPath(l.command)
		if err != nil {
			return "", fmt.Errorf("player command %q not found: %w", l.command, err)
		}
		return path, nil
	}

	candidates, ok := candidateCommands[runtime.GOOS]
	if !ok {
		candidates = candidateCommands["linux"] // default
	}
	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			l.logger.Debug("detected player", "path", path)
			return path, nil
		}
	}
	return "", fmt.Errorf("no mpv executable found")
}

// Launch starts the player in the background. The process is detached from
// our lifetime so playback can continue after the UI exits.
func (l *Launcher) Launch() error {
	command, err := l.resolveCommand()
	if err != nil {
		return err
	}

	// A stale socket from a crashed player would make mpv fail to bind
	if err := os.MkdirAll(filepath.Dir(l.socket), 0700); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}
	os.Remove(l.socket)

	args := l.buildArgs()
	l.logger.Info("launching player", "command", command, "args", args)

	cmd := exec.Command(command, args...)
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}

	// Reap the process if it exits while we are still running
	go func() {
		err := cmd.Wait()
		l.logger.Info("player process exited", "pid", cmd.Process.Pid, "error", err)
	}()
	return nil
}
