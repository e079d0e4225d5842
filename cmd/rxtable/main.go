package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts options
	root := &cobra.Command{
		Use:           "rxtable",
		Short:         "Turn a prescription PDF into a medication table image",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.bindPersistent(root)

	root.AddCommand(processCmd(&opts))
	root.AddCommand(parseCmd(&opts))
	root.AddCommand(renderCmd(&opts))

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
