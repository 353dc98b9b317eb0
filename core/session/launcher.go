package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Launcher starts a conversation unit bound to a session context. Launch
// returns once the unit started; it does not wait for the unit to finish.
type Launcher interface {
	Launch(ctx context.Context, sc Context) error
}

// LaunchError reports a conversation unit that could not be started.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string { return fmt.Sprintf("failed to launch session: %v", e.Err) }
func (e *LaunchError) Unwrap() error { return e.Err }

var _ Launcher = (*ProcessLauncher)(nil)

// ProcessLauncher runs every session in a child process of the given
// executable, invoked with its bot command.
type ProcessLauncher struct {
	executable string
	command    string
	stdout     io.Writer
	stderr     io.Writer
}

type ProcessLauncherOption func(*ProcessLauncher)

func WithExecutable(path string) ProcessLauncherOption {
	return func(l *ProcessLauncher) { l.executable = path }
}

// WithCommand sets the subcommand that runs a session, "bot" by default.
func WithCommand(command string) ProcessLauncherOption {
	return func(l *ProcessLauncher) { l.command = command }
}

func WithOutput(stdout, stderr io.Writer) ProcessLauncherOption {
	return func(l *ProcessLauncher) {
		l.stdout = stdout
		l.stderr = stderr
	}
}

// NewProcessLauncher launches sessions with the running executable unless
// another one is configured.
func NewProcessLauncher(opts ...ProcessLauncherOption) (*ProcessLauncher, error) {
	l := &ProcessLauncher{command: "bot", stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(l)
	}

	if l.executable == "" {
		executable, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve executable: %w", err)
		}
		l.executable = executable
	}
	return l, nil
}

func (l *ProcessLauncher) Launch(ctx context.Context, sc Context) error {
	ctx, span := tracer.Start(ctx, "launch session process")
	defer span.End()

	args, err := LaunchArgs(sc)
	if err != nil {
		return err
	}
	if l.command != "" {
		args = append([]string{l.command}, args...)
	}

	// The process outlives the request that launched it.
	cmd := exec.Command(l.executable, args...)
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr
	if err := cmd.Start(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to start %s: %w", l.executable, err)
	}

	pid := cmd.Process.Pid
	logger.InfoContext(ctx, "started session process", "session", sc.ID, "pid", pid)
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Error("session process exited", "session", sc.ID, "pid", pid, "error", err)
			return
		}
		logger.Info("session process exited", "session", sc.ID, "pid", pid)
	}()

	return nil
}
