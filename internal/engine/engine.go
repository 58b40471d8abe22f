package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/genricoloni/cmusrpc/internal/config"
	"github.com/genricoloni/cmusrpc/internal/domain"
	"github.com/genricoloni/cmusrpc/internal/format"
	"go.uber.org/zap"
)

const (
	tickDelay = 100 * time.Millisecond

	// startupDelay lets the player finish starting when both are launched together
	startupDelay = 500 * time.Millisecond

	checkPeriod     = 2 * time.Second
	maxPushInterval = 5 * time.Second

	notificationTitle = "cmusrpc"
)

// Engine mirrors the player state into the presence service.
// It polls the prober on a fixed tick and pushes an update whenever the
// track or play state changes, and periodically in between.
type Engine struct {
	logger   *zap.Logger
	cfg      config.Config
	prober   domain.Prober
	presence domain.Presence
	notifier domain.Notifier
	buttons  [2]buttonTemplate

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	cancel   context.CancelFunc
	done     chan struct{}
	err      error
	closeErr error
}

// NewEngine creates a new poll loop
func NewEngine(
	logger *zap.Logger,
	cfg config.Config,
	prober domain.Prober,
	presence domain.Presence,
	notifier domain.Notifier,
) *Engine {
	return &Engine{
		logger:   logger,
		cfg:      cfg,
		prober:   prober,
		presence: presence,
		notifier: notifier,
		buttons:  resolveButtons(cfg),
		sleep:    sleepContext,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start launches the loop in a goroutine and returns immediately.
// The loop outlives ctx; it ends on Stop or on a terminal error.
// The prober is closed by the same goroutine once the loop has returned.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Engine starting...", zap.String("player", e.prober.Name()))

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	go func() {
		defer close(e.done)
		e.err = e.Run(runCtx)
		e.closeErr = e.prober.Close()
		e.report(e.err)
	}()
	return nil
}

// Done is closed when the loop started by Start has returned
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Err returns the terminal error of the loop. Only valid after Done is closed.
func (e *Engine) Err() error {
	return e.err
}

// Stop cancels the loop and waits for it to return and release the prober.
// If ctx ends first the prober is released later, when the in-flight
// query returns.
func (e *Engine) Stop(ctx context.Context) error {
	e.logger.Info("Engine stopping...")

	if e.cancel == nil {
		return e.prober.Close()
	}

	e.cancel()
	select {
	case <-e.done:
		return e.closeErr
	case <-ctx.Done():
		return fmt.Errorf("waiting for poll loop: %w", ctx.Err())
	}
}

// Run executes the loop until ctx is cancelled or a terminal error occurs.
// Cancellation is a clean exit and returns nil.
func (e *Engine) Run(ctx context.Context) error {
	defer e.presence.Close()

	err := e.run(ctx)
	if ctx.Err() != nil {
		e.logger.Debug("Poll loop cancelled", zap.NamedError("cause", err))
		return nil
	}
	return err
}

func (e *Engine) run(ctx context.Context) error {
	if err := e.sleep(ctx, startupDelay); err != nil {
		return err
	}

	status, err := e.prober.Probe(ctx)
	if err != nil {
		return err
	}
	if status.Path == "" {
		return fmt.Errorf("%w: no track loaded", domain.ErrPlayerUnreachable)
	}

	if err := e.presence.Connect(ctx); err != nil {
		return err
	}
	e.logger.Info("Connected to Discord")

	return e.track(ctx, status)
}

// track is the tracking state of the loop. It starts from an already
// probed status and only returns on cancellation or a terminal error.
func (e *Engine) track(ctx context.Context, current domain.Status) error {
	pushEvery := ticks(min(e.cfg.Interval, maxPushInterval))
	checkEvery := ticks(checkPeriod)

	var sessionStart time.Time
	if e.cfg.Timestamp {
		sessionStart = e.now().Truncate(time.Second)
	}

	e.logger.Debug("Tracking player",
		zap.Int("pushEveryTicks", pushEvery),
		zap.Int("checkEveryTicks", checkEvery))

	previous := current
	timer := 0
	first := true

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if timer >= pushEvery {
			timer = 0
		}
		if timer%checkEvery == 0 && !first {
			current = e.probe(ctx)
		}
		first = false

		if current.Changed(previous) {
			previous = current
			timer = 0

			e.logger.Debug("State change",
				zap.String("path", current.Path),
				zap.String("state", current.PlayState()))

			if current.Path == "" {
				return domain.ErrPlayerLinkLost
			}
		}

		if timer == 0 {
			if err := e.push(ctx, current, sessionStart); err != nil {
				return err
			}
		}

		if err := e.sleep(ctx, tickDelay); err != nil {
			return err
		}
		timer++
	}
}

// probe returns an empty status when the player does not answer,
// which the loop treats as a lost connection.
func (e *Engine) probe(ctx context.Context) domain.Status {
	status, err := e.prober.Probe(ctx)
	if err != nil {
		e.logger.Debug("Probe failed", zap.Error(err))
		return domain.Status{}
	}
	return status
}

func (e *Engine) push(ctx context.Context, s domain.Status, sessionStart time.Time) error {
	update := e.buildUpdate(s, sessionStart)

	if err := e.presence.Push(ctx, update); err != nil {
		return err
	}

	e.logger.Debug("Presence updated",
		zap.Time("start", update.Start),
		zap.String("state", update.State),
		zap.String("details", update.Details),
		zap.String("largeImage", update.LargeImage),
		zap.String("smallImage", update.SmallImage),
		zap.Any("buttons", update.Buttons))
	return nil
}

func (e *Engine) buildUpdate(s domain.Status, sessionStart time.Time) domain.PresenceUpdate {
	update := domain.PresenceUpdate{
		State:      format.Render(e.cfg.StateText, s),
		Details:    format.Render(e.cfg.DetailsText, s),
		LargeImage: e.cfg.LargeImage,
		Start:      sessionStart,
		Buttons:    renderButtons(e.buttons, s),
	}

	if e.cfg.PlayingImage != "" && e.cfg.PausedImage != "" {
		if s.Playing {
			update.SmallImage = e.cfg.PlayingImage
		} else {
			update.SmallImage = e.cfg.PausedImage
		}
	}

	if e.cfg.Timestamp && e.cfg.SongTime {
		position := time.Duration(s.Position) * time.Second
		update.Start = e.now().Truncate(time.Second).Add(-position)
	}
	return update
}

// report turns a terminal error into a message for the user
func (e *Engine) report(err error) {
	if err == nil {
		e.logger.Info("Poll loop finished")
		return
	}

	player := e.prober.Name()
	var msg string
	switch {
	case errors.Is(err, domain.ErrPlayerLinkLost):
		msg = fmt.Sprintf("Connection to %s lost, exiting...", player)
	case errors.Is(err, domain.ErrServiceLinkLost):
		msg = "Connection to Discord lost, exiting..."
	case errors.Is(err, domain.ErrPlayerUnreachable):
		msg = fmt.Sprintf("Can't connect to %s, exiting...", player)
	case errors.Is(err, domain.ErrServiceUnreachable):
		msg = "Can't connect to Discord, exiting..."
	default:
		msg = "Poll loop failed, exiting..."
	}

	e.logger.Error(msg, zap.Error(err))
	e.notifier.Notify(notificationTitle, msg)
}

// ticks converts a period to a whole number of ticks, rounding up
func ticks(d time.Duration) int {
	n := int((d + tickDelay - 1) / tickDelay)
	if n < 1 {
		return 1
	}
	return n
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
