package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"macfinder/internal/cli"
)

// Exit codes
const (
	exitOK         = 0
	exitError      = 1
	exitUsage      = 2
	exitIncomplete = 3
)

func main() {
	opt, err := cli.Parse(os.Args[1:])
	if err != nil {
		if cli.IsHelp(err) {
			os.Exit(exitOK)
		}
		os.Exit(exitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code, err := run(ctx, opt, os.Stdout)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "macfinder: %v\n", err)
	}
	os.Exit(code)
}
