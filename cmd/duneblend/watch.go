package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/anttttti/DuneBlend/pkg/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes to the blends directory as they happen",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := svc.Watch(ctx)
		if err != nil {
			return err
		}
		for e := range events {
			printEvent(e)
		}
		return nil
	},
}

func printEvent(e core.Event) {
	fmt.Printf("%s %s\n", time.Unix(e.Timestamp, 0).Format(time.TimeOnly), e)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
