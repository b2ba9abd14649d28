package serviceutil

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

var ErrInterrupted = errors.New("interrupted")

// SignalContext returns a context that is cancelled with ErrInterrupted when
// Ctrl+C is pressed (or SIGTERM is received), the returned cancel func lets
// other parts of the program stop it with their own cause.
func SignalContext() (context.Context, context.CancelCauseFunc) {
	ctx, cancel := context.WithCancelCause(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigs:
			cancel(ErrInterrupted)
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()

	return ctx, cancel
}

func Fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}
