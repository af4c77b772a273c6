package application

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/bnema/tonebridge/internal/domain"
	"github.com/bnema/tonebridge/internal/ports"
	"github.com/bnema/tonebridge/internal/protocol"
	"github.com/bnema/tonebridge/internal/queue"
	"go.uber.org/zap"
)

const DefaultTickRate = 30

type HostActorConfig struct {
	Profile    domain.Profile
	Classifier ports.IdentityClassifier
	Remap      ports.RemapSource
	TickRate   int
	Debounce   time.Duration
	Clock      ports.Clock
	Logger     *zap.Logger
}

// HostActor owns every interaction with the host API. Tick must only be
// called from the host goroutine.
type HostActor struct {
	inbound  *queue.Inbound
	outbound *queue.Outbound

	resolver  *Resolver
	validator *Validator
	engine    *ApplyEngine
	watchdog  *Watchdog

	clock    ports.Clock
	interval time.Duration
	logger   *zap.Logger

	token  string
	outbox []queue.Envelope
}

func NewHostActor(inbound *queue.Inbound, outbound *queue.Outbound, cfg HostActorConfig) *HostActor {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = ports.SystemClock{}
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.Classifier == nil {
		cfg.Classifier = domain.PatternClassifier{Pattern: cfg.Profile.Identity}
	}
	if cfg.Remap == nil {
		cfg.Remap = ports.StaticRemap(cfg.Profile.Remap)
	}

	logger := cfg.Logger
	resolver := NewResolver(cfg.Classifier, logger)

	return &HostActor{
		inbound:   inbound,
		outbound:  outbound,
		resolver:  resolver,
		validator: NewValidator(cfg.Profile.Rules, cfg.Profile.Probes, logger),
		engine:    NewApplyEngine(cfg.Profile.Modules, cfg.Remap, resolver, logger),
		watchdog:  NewWatchdog(cfg.Debounce),
		clock:     cfg.Clock,
		interval:  time.Second / time.Duration(cfg.TickRate),
		logger:    logger,
	}
}

// Run ticks at the configured rate until ctx is done. The goroutine is
// locked to its OS thread for the lifetime of the loop.
func (a *HostActor) Run(ctx context.Context, host ports.Host) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ticker := a.clock.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info("host actor started", zap.Duration("interval", a.interval))
	for {
		select {
		case <-ctx.Done():
			a.shutdown()
			return nil
		case <-ticker.C():
			a.Tick(host)
		}
	}
}

func (a *HostActor) shutdown() {
	if a.token != "" {
		a.outbound.Push(a.token, protocol.NewError(protocol.CodeInternalError, "server shutting down"))
	}
	a.logger.Info("host actor stopped")
}

type pendingWrite struct {
	token string
	cmd   protocol.SetTone
}

// Tick runs one drain, scan, watch, resolve and apply cycle. host is only
// used for the duration of the call.
func (a *HostActor) Tick(host ports.Host) {
	defer a.flush()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("host tick panicked", zap.Any("panic", r))
		}
	}()

	scan, writes := a.drain()

	if scan && a.token != "" {
		a.handshake(host)
	}

	if a.watchdog.Observe(a.clock.Now(), host.StateGeneration(), func() SessionCounts { return CountSession(host) }) && a.token != "" {
		a.logger.Debug("project changed")
		a.emit(a.token, protocol.ProjectChanged{})
	}

	for _, w := range writes {
		a.applyWrite(host, w)
	}
}

// drain consumes the inbound queue. It reports whether a full scan is due
// and returns the writes to apply, one per target with the newest winning.
func (a *HostActor) drain() (bool, []pendingWrite) {
	scan := false
	var writes []pendingWrite
	byTarget := map[string]int{}

	for _, ev := range a.inbound.Drain() {
		switch ev.Kind {
		case queue.EventConnected:
			a.token = ev.Token
			scan = true
			writes, byTarget = nil, map[string]int{}
			a.logger.Info("session connected")
		case queue.EventDisconnected:
			if ev.Token == a.token {
				a.token = ""
				scan = false
				writes, byTarget = nil, map[string]int{}
				a.logger.Info("session disconnected")
			}
		case queue.EventCommand:
			if a.token == "" {
				if st, ok := ev.Command.(protocol.SetTone); ok {
					a.emit(ev.Token, protocol.NewError(protocol.CodeNotReady, "no active session"))
					a.logger.Debug("write before session", zap.String("command_id", st.CommandID))
				}
				continue
			}
			if ev.Token != a.token {
				continue
			}
			switch cmd := ev.Command.(type) {
			case protocol.RefreshInstances:
				scan = true
			case protocol.HandshakeAck:
				a.logger.Debug("handshake acknowledged")
			case protocol.SetTone:
				if i, ok := byTarget[cmd.TargetFXGUID]; ok {
					prev := writes[i]
					a.emit(prev.token, protocol.NewError(protocol.CodeSuperseded,
						fmt.Sprintf("command %s superseded by %s", prev.cmd.CommandID, cmd.CommandID)))
					writes = append(writes[:i], writes[i+1:]...)
					for target, j := range byTarget {
						if j > i {
							byTarget[target] = j - 1
						}
					}
				}
				byTarget[cmd.TargetFXGUID] = len(writes)
				writes = append(writes, pendingWrite{token: ev.Token, cmd: cmd})
			}
		}
	}

	return scan, writes
}

func (a *HostActor) handshake(host ports.Host) {
	result := fullScan(host, a.resolver, a.validator)

	a.watchdog.Reset(host.StateGeneration(), CountSession(host))
	a.emit(a.token, protocol.NewHandshake(a.token, result))
	a.logger.Info("handshake sent",
		zap.Int("instances", len(result.Instances)),
		zap.Int("report_entries", len(result.Report)),
	)
}

func (a *HostActor) applyWrite(host ports.Host, w pendingWrite) {
	cmd := w.cmd
	if !cmd.Mode.Valid() {
		a.emit(w.token, protocol.NewError(protocol.CodeInvalidCommand, fmt.Sprintf("unknown mode %q", cmd.Mode)))
		return
	}

	target, err := a.resolver.Resolve(host, domain.InstanceID(cmd.TargetFXGUID))
	if err != nil {
		a.emit(w.token, errorFor(err))
		return
	}

	result, err := a.engine.Apply(host, target, cmd.Mode, cmd.Changes())
	if err != nil {
		a.logger.Warn("set_tone failed",
			zap.String("command_id", cmd.CommandID),
			zap.String("target", cmd.TargetFXGUID),
			zap.Error(err),
		)
		a.emit(w.token, errorFor(err))
		return
	}

	a.logger.Debug("set_tone applied",
		zap.String("command_id", cmd.CommandID),
		zap.Int("applied", len(result.Applied)),
		zap.Int("rejected", result.Rejected),
		zap.Int("injected", result.Injected),
	)
	a.emit(w.token, protocol.NewAck(cmd.CommandID, result.Applied))
}

func errorFor(err error) protocol.ErrorMessage {
	switch {
	case errors.Is(err, domain.ErrTargetNotFound):
		return protocol.NewError(protocol.CodeTargetNotFound, "target fx guid not found")
	case errors.Is(err, domain.ErrSanitizationRejected):
		return protocol.NewError(protocol.CodeInvalidValue, err.Error())
	default:
		return protocol.NewError(protocol.CodeInternalError, err.Error())
	}
}

func (a *HostActor) emit(token string, msg protocol.Message) {
	a.outbox = append(a.outbox, queue.Envelope{Token: token, Message: msg})
}

func (a *HostActor) flush() {
	for _, env := range a.outbox {
		if !a.outbound.Push(env.Token, env.Message) {
			a.logger.Warn("outbound message dropped", zap.String("type", string(env.Message.MessageType())))
		}
	}
	a.outbox = a.outbox[:0]
}
