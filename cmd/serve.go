package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/tonebridge/internal/adapters/ws"
	"github.com/bnema/tonebridge/internal/application"
	"github.com/bnema/tonebridge/internal/domain"
	"github.com/bnema/tonebridge/internal/queue"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge against a simulated host session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cmd, app)
		},
	}

	flags := cmd.Flags()
	flags.String("listen", ws.DefaultConfig().Addr, "WebSocket listen address")
	flags.Int("tick-rate", application.DefaultTickRate, "Host ticks per second")
	flags.Duration("debounce", application.DefaultDebounce, "Minimum interval between project_changed notices")
	flags.Int("queue-capacity", queue.DefaultCapacity, "Capacity of each channel between the actors")
	app.bindFlag("listen", flags.Lookup("listen"))
	app.bindFlag("tick_rate", flags.Lookup("tick-rate"))
	app.bindFlag("debounce", flags.Lookup("debounce"))
	app.bindFlag("queue_capacity", flags.Lookup("queue-capacity"))

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, app *app) error {
	logger := app.logger

	session, err := app.loadSession()
	if err != nil {
		return err
	}

	if err := app.profiles.Watch(); err != nil {
		logger.Warn("profile hot reload disabled", zap.Error(err))
	}
	app.profiles.OnReload(func(domain.Profile) {
		logger.Info("profile changed on disk; index remap applied, restart to apply other sections")
	})

	capacity := app.config.GetInt("queue_capacity")
	inbound := queue.NewInbound(capacity)
	outbound := queue.NewOutbound(capacity)

	actor := application.NewHostActor(inbound, outbound, application.HostActorConfig{
		Profile:  app.profiles.Profile(),
		Remap:    app.profiles,
		TickRate: app.config.GetInt("tick_rate"),
		Debounce: app.config.GetDuration("debounce"),
		Clock:    app.clock,
		Logger:   logger.Named("host"),
	})

	cfg := ws.DefaultConfig()
	cfg.Addr = app.config.GetString("listen")
	server := ws.NewServer(cfg, inbound, outbound, logger.Named("network"))

	addr, err := server.Listen()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "listening on ws://%s\n", addr); err != nil {
		return err
	}

	// The host actor stops first so its final error frame still reaches the
	// network actor's last drain.
	hostCtx, stopHost := context.WithCancel(context.Background())
	defer stopHost()
	netCtx, stopNet := context.WithCancel(context.Background())
	defer stopNet()

	hostDone := make(chan error, 1)
	netDone := make(chan error, 1)
	go func() { hostDone <- actor.Run(hostCtx, session) }()
	go func() { netDone <- server.Serve(netCtx) }()

	var netErr error
	netStopped := false
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case netErr = <-netDone:
		netStopped = true
		logger.Error("network actor stopped", zap.Error(netErr))
	}

	stopHost()
	hostErr := <-hostDone
	if !netStopped {
		stopNet()
		netErr = <-netDone
	}

	return errors.Join(hostErr, netErr)
}
