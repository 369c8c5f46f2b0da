package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"highlighter/internal/assembly"
)

// exitNoScenes reports a run in which no scene survived selection.
const exitNoScenes = 2

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	cancel()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, assembly.ErrNoValidScenes) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, assembly.ErrNoValidScenes):
		return exitNoScenes
	default:
		return 1
	}
}
