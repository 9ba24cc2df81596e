package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/anttttti/DuneBlend/pkg/git"
)

var historyLimit int

// historian is implemented by versioned stores.
type historian interface {
	History(ctx context.Context, filename string, limit int) ([]git.Commit, error)
}

var historyCmd = &cobra.Command{
	Use:   "history [filename]",
	Short: "Show the commits of a blend in a versioned blends directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		h, ok := svc.Store().(historian)
		if !ok {
			return errors.New("history needs the fs adapter")
		}

		commits, err := h.History(cmd.Context(), args[0], historyLimit)
		if err != nil {
			return err
		}
		for _, c := range commits {
			fmt.Printf("%s %s %s %s\n", shortHash(c.Hash), c.Date.Format(time.DateOnly), c.Author, c.Subject)
		}
		return nil
	},
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of commits")
}
