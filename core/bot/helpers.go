package bot

import (
	"context"
	"fmt"
	"sync"
)

// onDone calls fn once ctx is done. Closing the returned channel stops the
// watch without calling fn.
func onDone(ctx context.Context, fn func()) chan struct{} {
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			fn()
		case <-stop:
		}
	}()
	return stop
}

// recoverWorker turns a panic in run into an error naming the worker.
func recoverWorker(name string, run func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("%s worker panicked: %v", name, recovered)
			}
		}()

		if err = run(ctx); err != nil {
			return fmt.Errorf("%s worker failed: %w", name, err)
		}
		return nil
	}
}

type workerResult struct {
	name string
	err  error
}

// workers runs the background loops of one session and reports how each of
// them ended.
type workers struct {
	wg      sync.WaitGroup
	results chan workerResult
}

func newWorkers(size int) *workers {
	return &workers{results: make(chan workerResult, size)}
}

func (w *workers) start(ctx context.Context, name string, run func(context.Context) error) {
	run = recoverWorker(name, run)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.results <- workerResult{name: name, err: run(ctx)}
	}()
}

func (w *workers) Results() <-chan workerResult { return w.results }

func (w *workers) Wait() { w.wg.Wait() }
