package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-client/internal/domain"
	"github.com/spec-kit/volunteer-client/internal/events"
	"github.com/spec-kit/volunteer-client/internal/realtime"
)

// PlatformAPI is the slice of the HTTP surface the aggregator refreshes
// from. Both operations are idempotent GETs.
type PlatformAPI interface {
	UnreadCount(ctx context.Context) (int, error)
	OrganisationApplications(ctx context.Context) ([]domain.Application, error)
}

// Stream is the managed realtime subscription feeding the aggregator.
type Stream interface {
	Start()
	Stop()
	Connected() bool
}

// StreamFactory builds the stream with the aggregator's handlers attached.
type StreamFactory func(onMessage realtime.MessageHandler, onState realtime.StateHandler) Stream

// Options bundles aggregator dependencies.
type Options struct {
	API          PlatformAPI
	Dispatcher   events.Dispatcher
	NewStream    StreamFactory
	Logger       *zap.Logger
	PollInterval time.Duration
}

const defaultPollInterval = 30 * time.Second

// chronicFailureThreshold is the number of consecutive failed poll cycles
// before a single warning alert is published.
const chronicFailureThreshold = 3

// Aggregator turns the raw notification stream into counts, alerts and a
// derived pending-applications view, and keeps that view fresh through a
// polling fallback whenever the stream is down.
type Aggregator struct {
	api        PlatformAPI
	dispatcher events.Dispatcher
	logger     *zap.Logger
	interval   time.Duration
	newStream  StreamFactory

	mu         sync.Mutex
	stream     Stream
	unread     int
	pending    []domain.Application
	hasNew     bool
	wasOpen    bool
	failStreak int
	alerted    bool
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// ForPrincipal returns an aggregator when the principal subscribes to
// realtime notifications. Only authenticated organisations do; every other
// role gets nil.
func ForPrincipal(p domain.Principal, opts Options) *Aggregator {
	if p.Role != domain.RoleOrganisation {
		return nil
	}
	return New(opts)
}

// New builds a stopped aggregator.
func New(opts Options) *Aggregator {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Aggregator{
		api:        opts.API,
		dispatcher: opts.Dispatcher,
		logger:     opts.Logger,
		interval:   opts.PollInterval,
		newStream:  opts.NewStream,
	}
}

// Start opens the realtime subscription, loads the initial counts and
// snapshot, and arms the polling fallback. Calling Start on a running
// aggregator is a no-op.
func (a *Aggregator) Start(ctx context.Context) {
	a.mu.Lock()
	if a.done != nil {
		a.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.ctx = runCtx
	a.cancel = cancel
	a.done = make(chan struct{})
	done := a.done

	a.stream = a.newStream(a.handleMessage, a.handleStateChange)
	stream := a.stream
	a.mu.Unlock()

	stream.Start()

	go func() {
		a.refreshAll(runCtx)
		a.pollLoop(runCtx, done)
	}()
}

// Stop tears down the subscription and the polling timer. No timers or
// sockets outlive the call.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	if a.done == nil {
		a.mu.Unlock()
		return
	}
	done := a.done
	a.done = nil
	stream := a.stream
	a.stream = nil
	a.cancel()
	a.mu.Unlock()

	if stream != nil {
		stream.Stop()
	}
	<-done
}

// UnreadCount returns the last fetched unread-notification count.
func (a *Aggregator) UnreadCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unread
}

// PendingApplications returns the current derived snapshot.
func (a *Aggregator) PendingApplications() []domain.Application {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.Application, len(a.pending))
	copy(out, a.pending)
	return out
}

// HasNewApplication reports whether a new application arrived since the
// flag was last cleared.
func (a *Aggregator) HasNewApplication() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hasNew
}

// ClearNewApplication resets the consumer-clearable new-application flag.
func (a *Aggregator) ClearNewApplication() {
	a.mu.Lock()
	a.hasNew = false
	a.mu.Unlock()
}

// Connected reports the health of the realtime subscription.
func (a *Aggregator) Connected() bool {
	a.mu.Lock()
	stream := a.stream
	a.mu.Unlock()
	return stream != nil && stream.Connected()
}

// RefreshNotifications re-fetches the unread count. On failure the previous
// value is retained.
func (a *Aggregator) RefreshNotifications(ctx context.Context) error {
	count, err := a.api.UnreadCount(ctx)
	if err != nil {
		a.logger.Warn("failed to load unread count", zap.Error(err))
		return err
	}
	a.mu.Lock()
	a.unread = count
	a.mu.Unlock()
	return nil
}

// RefreshApplications re-fetches all applications and fully replaces the
// pending snapshot. Replacement, not patching: overlapping refreshes settle
// on whichever completed last. On failure the previous snapshot is
// retained.
func (a *Aggregator) RefreshApplications(ctx context.Context) error {
	apps, err := a.api.OrganisationApplications(ctx)
	if err != nil {
		a.logger.Warn("failed to load applications", zap.Error(err))
		return err
	}
	pending := domain.FilterPending(apps)
	a.mu.Lock()
	a.pending = pending
	a.mu.Unlock()
	return nil
}

// handleMessage classifies one inbound frame. Refreshes run asynchronously
// so a slow fetch never blocks the read loop.
func (a *Aggregator) handleMessage(msg realtime.Message) {
	ctx := a.runContext()
	if ctx == nil {
		return
	}

	switch msg.Type {
	case realtime.MessageNewApplication, realtime.MessageApplicationCreated:
		a.mu.Lock()
		a.hasNew = true
		a.mu.Unlock()
		go a.RefreshNotifications(ctx) //nolint:errcheck
		go a.RefreshApplications(ctx)  //nolint:errcheck
		a.publishAlert(ctx, events.SeverityInfo, newApplicationAlert(msg))

	case realtime.MessageStatusChanged, realtime.MessageApplicationUpdated:
		go a.RefreshNotifications(ctx) //nolint:errcheck
		go a.RefreshApplications(ctx)  //nolint:errcheck
		if text := statusChangedAlert(msg); text != "" {
			a.publishAlert(ctx, events.SeverityInfo, text)
		}

	case realtime.MessageNotification:
		go a.RefreshNotifications(ctx) //nolint:errcheck
		if msg.Text != "" {
			a.publishAlert(ctx, events.SeverityInfo, msg.Text)
		}

	default:
		// Unknown types are forward-compatible noise, not errors.
		a.logger.Debug("ignoring unrecognized message type", zap.String("type", string(msg.Type)))
	}
}

func (a *Aggregator) handleStateChange(state realtime.State, err error) {
	ctx := a.runContext()
	if ctx == nil {
		return
	}

	switch state {
	case realtime.StateConnected:
		a.mu.Lock()
		reopened := a.wasOpen
		a.wasOpen = true
		a.mu.Unlock()
		if reopened {
			a.dispatcher.Publish(ctx, events.Event{
				Type:      events.EventConnectionRestored,
				Timestamp: time.Now(),
			})
		}
	case realtime.StateDisconnected:
		a.mu.Lock()
		dropped := a.wasOpen
		a.mu.Unlock()
		if dropped {
			a.dispatcher.Publish(ctx, events.Event{
				Type:      events.EventConnectionLost,
				Timestamp: time.Now(),
			})
		}
	case realtime.StateGivenUp:
		a.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventConnectionFailed,
			Timestamp: time.Now(),
			Payload:   err,
		})
		a.publishAlert(ctx, events.SeverityWarning,
			"Veza sa serverom nije dostupna, podaci se osvežavaju periodično")
	}
}

// pollLoop bounds staleness while the stream is down. The connected check
// happens at fire time so the poll and the reconnect machinery cannot
// diverge.
func (a *Aggregator) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.Connected() {
				continue
			}
			a.refreshAll(ctx)
		}
	}
}

// refreshAll runs both refresh operations, tracking consecutive failures so
// a chronic outage surfaces exactly one warning until the next success.
func (a *Aggregator) refreshAll(ctx context.Context) {
	countErr := a.RefreshNotifications(ctx)
	appsErr := a.RefreshApplications(ctx)

	a.mu.Lock()
	if countErr != nil || appsErr != nil {
		a.failStreak++
	} else {
		a.failStreak = 0
		a.alerted = false
	}
	chronic := a.failStreak >= chronicFailureThreshold && !a.alerted
	if chronic {
		a.alerted = true
	}
	a.mu.Unlock()

	if chronic {
		a.publishAlert(ctx, events.SeverityWarning,
			"Podaci možda nisu ažurni, osvežavanje ne uspeva")
	}
}

func (a *Aggregator) publishAlert(ctx context.Context, severity events.Severity, message string) {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Publish(ctx, events.NewAlert(severity, message))
}

// runContext returns the context of the running instance, or nil when the
// aggregator is stopped (late callbacks from a closing stream are dropped).
func (a *Aggregator) runContext() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done == nil {
		return nil
	}
	return a.ctx
}

func newApplicationAlert(msg realtime.Message) string {
	if msg.Data != nil {
		title := msg.DataString("event_title")
		if title == "" {
			title = msg.DataString("title")
		}
		if title == "" {
			title = "Nepoznat događaj"
		}
		return fmt.Sprintf("Nova prijava na događaj: %s", title)
	}
	if msg.Text != "" {
		return msg.Text
	}
	return "Nova prijava na događaj"
}

func statusChangedAlert(msg realtime.Message) string {
	status := msg.DataString("status")
	if status == "" {
		return ""
	}
	label := status
	switch domain.ApplicationStatus(status) {
	case domain.ApplicationStatusAccepted:
		label = "prihvaćena"
	case domain.ApplicationStatusRejected:
		label = "odbijena"
	}
	return fmt.Sprintf("Status prijave je promenjen: %s", label)
}
