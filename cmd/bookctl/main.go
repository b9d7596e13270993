package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/marcelsud/bookcatalog/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCommand(os.Stdin, os.Stdout, time.Local)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
