package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/meetingmate/internal/logging"
	"github.com/teemow/meetingmate/internal/meeting"
)

// DefaultPollInterval is the fallback scan cadence for sources without push
// notifications.
const DefaultPollInterval = 5 * time.Minute

// Poller periodically enqueues scan jobs for every configured account and
// source. It backs up the Drive webhook channel (notifications can be
// dropped) and is the only trigger for Gmail, which has no push channel
// here.
type Poller struct {
	queue    *Queue
	accounts []string
	interval time.Duration
	logger   *slog.Logger

	triggerCh chan struct{}
	stopCh    chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

// NewPoller creates a poller over the given accounts. It does not run until
// Start is called.
func NewPoller(queue *Queue, accounts []string, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		queue:     queue,
		accounts:  accounts,
		interval:  interval,
		logger:    logger,
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins the poll loop in a goroutine. The first scan fires
// immediately, later ones on the configured interval or on Trigger.
func (p *Poller) Start(ctx context.Context) {
	go p.loop(ctx)
}

// Trigger requests an immediate scan out of cadence. Non-blocking; a scan
// already pending absorbs the request.
func (p *Poller) Trigger() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Stop terminates the poll loop and waits for it to exit.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.done
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.scanAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.scanAll()
		case <-p.triggerCh:
			p.scanAll()
		}
	}
}

func (p *Poller) scanAll() {
	for _, account := range p.accounts {
		for _, kind := range []meeting.SourceKind{meeting.SourceDrive, meeting.SourceGmail} {
			if !p.queue.Enqueue(Job{Account: account, Kind: kind}) {
				p.logger.Warn("scan skipped, queue full",
					logging.Account(account),
					logging.Source(string(kind)))
			}
		}
	}
}
