package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alextanhongpin/go-fitmate/api"
	"github.com/alextanhongpin/go-fitmate/infra"
	"github.com/alextanhongpin/go-fitmate/pkg/eventbus"
	"github.com/alextanhongpin/go-fitmate/pkg/ticket"
	"github.com/alextanhongpin/go-fitmate/usecase"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the friend list HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return c.serve(ctx)
		},
	}
}

func (c *cli) serve(ctx context.Context) error {
	open, closeSlots, err := infra.OpenSlots(ctx, c.cfg.Slot, c.logger)
	if err != nil {
		return err
	}
	defer closeSlots()

	sessions := usecase.NewSessions(open, c.directory(), c.logger)
	issuer := ticket.New([]byte(c.cfg.Ticket.Secret), c.cfg.Ticket.ExpiresIn)
	server := api.New(sessions, issuer, c.logger)
	sessions.Notices = newNoticeBus(c.logger, server.PublishNotice)

	srv := &http.Server{
		Addr:              c.cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("http: listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.logger.Info("http: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// newNoticeBus logs every store notice and hands it to each of handlers.
func newNoticeBus(logger *zap.Logger, handlers ...eventbus.Handler[usecase.Notice]) *eventbus.EventBus[usecase.Notice] {
	bus := eventbus.New[usecase.Notice]()

	logNotice := func(n usecase.Notice) error {
		fields := []zap.Field{
			zap.String("owner", n.Owner),
			zap.String("event", n.Event),
			zap.String("friend", n.Friend.Email),
		}
		if n.Err != nil {
			logger.Warn("notice", append(fields, zap.Error(n.Err))...)
			return nil
		}
		logger.Info("notice", append(fields, zap.String("message", n.Message))...)

		return nil
	}

	for _, event := range []string{
		usecase.EventFriendAdded,
		usecase.EventRemovalRequested,
		usecase.EventRemovalCancelled,
		usecase.EventFriendRemoved,
		usecase.EventPersistenceFailed,
	} {
		bus.On(event, logNotice)
		for _, h := range handlers {
			bus.On(event, h)
		}
	}

	return bus
}
