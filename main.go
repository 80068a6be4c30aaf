package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghnav/cli/cmd"
)

func main() {
	// Set up graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		// First signal: trigger graceful shutdown
		cancel()

		// Wait for second signal for immediate exit
		<-sigChan
		os.Exit(130) // 128 + SIGINT(2)
	}()

	// Store context for commands to use
	cmd.SetContext(ctx)

	// Execute the CLI
	cmd.Execute()
}
