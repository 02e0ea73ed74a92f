// Package notification delivers account notices off the request path.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gotransfer/internal/domain"
)

// Outcomes reported to a Recorder.
const (
	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeDropped = "dropped"
)

// Sender hands a notice to an external channel.
type Sender interface {
	Send(ctx context.Context, notice domain.Notice) error
}

// Recorder receives delivery statistics.
type Recorder interface {
	Notification(outcome string)
	QueueDepth(n int)
}

// IDGenerator produces notice reference ids.
type IDGenerator interface {
	Generate() string
}

// Config for Dispatcher.
type Config struct {
	Sender      Sender
	Logger      zerolog.Logger
	Recorder    Recorder
	IDGen       IDGenerator
	QueueSize   int           // Notices buffered before new ones are dropped
	Workers     int           // Goroutines draining the queue
	SendTimeout time.Duration // Upper bound for a single Send
}

// Dispatcher implements usecase.Notifier with a bounded queue drained by a
// fixed set of workers. Notify never blocks; a full queue drops the notice.
type Dispatcher struct {
	sender      Sender
	logger      zerolog.Logger
	recorder    Recorder
	idGen       IDGenerator
	workers     int
	sendTimeout time.Duration

	queue    chan domain.Notice
	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDispatcher creates a new Dispatcher. Notices queue up until Start is called.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if cfg.Sender == nil {
		cfg.Sender = NewLogSender(cfg.Logger)
	}

	return &Dispatcher{
		sender:      cfg.Sender,
		logger:      cfg.Logger,
		recorder:    cfg.Recorder,
		idGen:       cfg.IDGen,
		workers:     cfg.Workers,
		sendTimeout: cfg.SendTimeout,
		queue:       make(chan domain.Notice, cfg.QueueSize),
	}
}

// Notify enqueues a notice for account. It returns immediately.
func (d *Dispatcher) Notify(_ context.Context, account domain.Account, message string) {
	notice := domain.Notice{
		AccountID: account.ID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if d.idGen != nil {
		notice.ReferenceID = d.idGen.Generate()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(notice, "dispatcher stopped")
		return
	}

	select {
	case d.queue <- notice:
		d.recorder.QueueDepth(len(d.queue))
	default:
		d.drop(notice, "notification queue full")
	}
}

// Start launches the workers. They run until Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info().
		Int("workers", d.workers).
		Int("queue_size", cap(d.queue)).
		Msg("notification dispatcher started")

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(context.WithoutCancel(ctx))
	}
}

// Stop stops accepting notices, delivers what is already queued and waits
// for the workers to exit.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})

	d.wg.Wait()
	d.logger.Info().Msg("notification dispatcher stopped")
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()

	for notice := range d.queue {
		d.recorder.QueueDepth(len(d.queue))
		d.deliver(ctx, notice)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, notice domain.Notice) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, notice); err != nil {
		d.recorder.Notification(outcomeFailed)
		d.logger.Error().
			Err(err).
			Str("account_id", notice.AccountID).
			Str("reference_id", notice.ReferenceID).
			Msg("failed to deliver notification")
		return
	}

	d.recorder.Notification(outcomeSent)
}

func (d *Dispatcher) drop(notice domain.Notice, reason string) {
	d.recorder.Notification(outcomeDropped)
	d.logger.Warn().
		Str("account_id", notice.AccountID).
		Str("reason", reason).
		Msg("notification dropped")
}

type nopRecorder struct{}

func (nopRecorder) Notification(string) {}
func (nopRecorder) QueueDepth(int)      {}
