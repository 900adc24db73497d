package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"eventlottery/internal/domain"
)

var (
	ErrNotifierClosed = errors.New("notifier is closed")
	ErrQueueFull      = errors.New("notification queue is full")
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
	sendTimeout      = 15 * time.Second
)

// NotifierConfig bounds the notifier's memory and concurrency.
type NotifierConfig struct {
	// Workers is the number of recipients of one notification mailed concurrently.
	Workers int
	// QueueSize is the number of notifications that may wait for delivery.
	QueueSize int
}

type notification struct {
	ctx        context.Context
	eventID    string
	recipients []string
	template   string
	vars       map[string]string
}

// Notifier is the e-mail domain.Notifier. Notify only enqueues; a single dispatcher renders
// each notification and mails its recipients through a bounded errgroup.
type Notifier struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	profiles domain.ProfileDirectory
	logger   *slog.Logger
	workers  int

	mu     sync.RWMutex
	closed bool
	queue  chan notification
	done   chan struct{}
}

// NewNotifier starts the dispatcher. Call Close to drain the queue and stop it.
func NewNotifier(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, profiles domain.ProfileDirectory, cfg NotifierConfig, logger *slog.Logger) *Notifier {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{
		mailer:   mailer,
		renderer: renderer,
		profiles: profiles,
		logger:   logger,
		workers:  cfg.Workers,
		queue:    make(chan notification, cfg.QueueSize),
		done:     make(chan struct{}),
	}
	go n.dispatch()
	return n
}

// Notify enqueues a notification without waiting for delivery.
func (n *Notifier) Notify(ctx context.Context, eventID string, recipientIDs []string, template string, vars map[string]string) error {
	if len(recipientIDs) == 0 {
		return nil
	}
	job := notification{
		ctx:        context.WithoutCancel(ctx),
		eventID:    eventID,
		recipients: append([]string(nil), recipientIDs...),
		template:   template,
		vars:       vars,
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrNotifierClosed
	}
	select {
	case n.queue <- job:
		return nil
	default:
		return fmt.Errorf("%w: dropping %s for %d recipients", ErrQueueFull, template, len(recipientIDs))
	}
}

// Close stops accepting notifications and waits until the queued ones are delivered or ctx ends.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) dispatch() {
	defer close(n.done)
	for job := range n.queue {
		n.deliver(job)
	}
}

func (n *Notifier) deliver(job notification) {
	var g errgroup.Group
	g.SetLimit(n.workers)
	for _, entrantID := range job.recipients {
		g.Go(func() error {
			if err := n.send(job, entrantID); err != nil {
				n.logger.WarnContext(job.ctx, "notification delivery failed",
					"event_id", job.eventID,
					"entrant_id", entrantID,
					"template", job.template,
					"err", err,
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (n *Notifier) send(job notification, entrantID string) error {
	ctx, cancel := context.WithTimeout(job.ctx, sendTimeout)
	defer cancel()

	attrs, err := n.profiles.Resolve(ctx, entrantID)
	if errors.Is(err, domain.ErrNotFound) {
		n.logger.DebugContext(ctx, "no profile for recipient, skipping", "entrant_id", entrantID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve profile: %w", err)
	}
	if !attrs.NotificationsEnabled || attrs.Email == "" {
		return nil
	}

	data := &domain.NotificationEmailData{
		RecipientName: attrs.Name,
		EventID:       job.eventID,
		EventName:     job.vars[domain.VarEventName],
	}
	subject, htmlBody, textBody, err := n.renderer.Render(job.template, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", job.template, err)
	}
	if err := n.mailer.Send(ctx, attrs.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}
