package session

import (
	"fmt"
	"log/slog"
	"sync"
)

// loop runs posted tasks one at a time on a single goroutine. Scans,
// monitor events, countdown ticks and user actions all go through it, so
// none of them observe a half-processed subtree.
type loop struct {
	logger *slog.Logger

	mu     sync.Mutex
	queue  []func()
	closed bool

	signal chan struct{}
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newLoop(logger *slog.Logger) *loop {
	return &loop{
		logger: logger,
		signal: make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (l *loop) start() {
	go l.run()
}

// wait blocks until a started loop has exited.
func (l *loop) wait() {
	<-l.done
}

// post enqueues fn without blocking. It reports false once the loop stopped.
func (l *loop) post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
	return true
}

// dispatch adapts post to the Dispatch hooks of gate and monitor.
func (l *loop) dispatch(fn func()) { l.post(fn) }

// call runs fn on the loop and waits for it. It must not be called from a
// task already running on the loop.
func (l *loop) call(fn func()) error {
	finished := make(chan struct{})
	if !l.post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrInactive
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrInactive
		}
	}
}

// stop ends the loop after the running task. Pending tasks are dropped.
func (l *loop) stop() {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.queue = nil
		l.mu.Unlock()
		close(l.quit)
	})
}

func (l *loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.quit:
			return
		case <-l.signal:
		}
		for {
			l.mu.Lock()
			if len(l.queue) == 0 || l.closed {
				l.mu.Unlock()
				break
			}
			fn := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()

			l.runTask(fn)
		}
	}
}

func (l *loop) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("session task panicked", "err", fmt.Sprint(r))
		}
	}()
	fn()
}
