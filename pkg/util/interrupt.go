package util

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WaitForInterrupt blocks until SIGINT/SIGTERM is received or ctx is done.
func WaitForInterrupt(ctx context.Context) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-sig:
	case <-ctx.Done():
	}
}
