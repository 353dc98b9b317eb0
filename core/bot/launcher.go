package bot

import (
	"context"

	"github.com/koscakluka/vocablive/core/session"
)

type sessionRunner interface {
	Run(ctx context.Context, sc session.Context) error
}

var _ session.Launcher = (*TaskLauncher)(nil)

// TaskLauncher runs every session in a goroutine of the serving process.
// Sessions are registered with the tracker until they finish.
type TaskLauncher struct {
	runner  sessionRunner
	tracker *session.Tracker
}

func NewTaskLauncher(runner sessionRunner, tracker *session.Tracker) *TaskLauncher {
	return &TaskLauncher{runner: runner, tracker: tracker}
}

func (l *TaskLauncher) Launch(ctx context.Context, sc session.Context) error {
	// The session outlives the request that launched it.
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	unregister := l.tracker.Register(sc.ID, cancel)

	run := recoverWorker("session", func(ctx context.Context) error {
		return l.runner.Run(ctx, sc)
	})

	go func() {
		defer unregister()
		defer cancel()

		if err := run(ctx); err != nil {
			logger.ErrorContext(ctx, "session failed", "session", sc.ID, "error", err)
			return
		}
		logger.InfoContext(ctx, "session finished", "session", sc.ID)
	}()

	return nil
}
