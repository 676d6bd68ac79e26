package statusboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/jpalmerr/statusboard/internal/poller"
	"github.com/jpalmerr/statusboard/internal/refresh"
)

// channelState is the lifecycle of one push channel.
type channelState int

const (
	stateConnecting channelState = iota
	stateOpen
	stateClosed
	stateTerminal
)

func (s channelState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateOpen:
		return "open"
	case stateClosed:
		return "closed"
	case stateTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("channelState(%d)", int(s))
	}
}

// runPush opens a channel, consumes it until it closes, and opens a brand
// new one whenever the controller schedules a retry.
func (b *Board) runPush(ctx context.Context, ctl *refresh.Controller) {
	for {
		b.connectOnce(ctx, ctl)
		if !ctl.Wait(ctx) {
			return
		}
	}
}

// connectOnce drives one channel through Connecting, Open and Closed.
// Opening counts as success; closing or failing to open counts as failure.
func (b *Board) connectOnce(ctx context.Context, ctl *refresh.Controller) {
	logger := b.logger.With("conn_id", uuid.NewString())

	logger.Debug("push channel transition", "state", stateConnecting.String(), "url", b.channelURL)
	b.sink.SetMode(ModeLoading)

	conn, err := b.dial(ctx)
	if err != nil {
		if ctx.Err() != nil || !ctl.Active() {
			return
		}
		logger.Warn("push channel failed to open", "url", b.channelURL, "error", err.Error())
		b.closed(ctl, logger)
		return
	}
	if ctx.Err() != nil || !ctl.Active() {
		_ = conn.Close()
		return
	}

	logger.Info("push channel established", "url", b.channelURL)
	logger.Debug("push channel transition", "state", stateOpen.String())
	b.sink.SetMode(ModeNormal)
	ctl.Reset()

	err = b.consume(ctx, ctl, conn, logger)

	if ctx.Err() != nil || !ctl.Active() {
		return
	}
	logger.Warn("push channel closed", "error", errString(err))
	b.closed(ctl, logger)
}

// closed reports a lost channel to the controller. The controller switches
// the sink to error mode and either schedules a reconnect or gives up.
func (b *Board) closed(ctl *refresh.Controller, logger *slog.Logger) {
	logger.Debug("push channel transition", "state", stateClosed.String())
	if d := ctl.OnFailure(); d.Terminal {
		logger.Debug("push channel transition", "state", stateTerminal.String())
	}
}

func (b *Board) dial(ctx context.Context) (*websocket.Conn, error) {
	cfg, err := websocket.NewConfig(b.channelURL, b.origin)
	if err != nil {
		return nil, fmt.Errorf("invalid channel config: %w", err)
	}
	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, err
	}
	conn.MaxPayloadBytes = poller.MaxBodySize
	return conn, nil
}

// consume renders every snapshot received on conn until the channel fails.
// Malformed messages are logged and dropped; they do not close the channel.
// The channel is closed when ctx is done or the controller goes inactive.
func (b *Board) consume(ctx context.Context, ctl *refresh.Controller, conn *websocket.Conn, logger *slog.Logger) error {
	stop := make(chan struct{})
	defer close(stop)
	defer func() { _ = conn.Close() }()

	go func() {
		select {
		case <-ctx.Done():
		case <-ctl.Done():
		case <-stop:
			return
		}
		_ = conn.Close()
	}()

	for {
		var msg []byte
		if err := websocket.Message.Receive(conn, &msg); err != nil {
			if errors.Is(err, websocket.ErrFrameTooLarge) {
				logger.Warn("discarding oversized push message", "limit_bytes", poller.MaxBodySize)
				continue
			}
			return err
		}

		snapshot, err := ParseSnapshot(msg)
		if err != nil {
			logger.Warn("discarding malformed push message", "error", err.Error())
			continue
		}

		b.deliver(snapshot)
		logger.Debug("push snapshot received", "records", len(snapshot))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
