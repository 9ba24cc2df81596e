package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored blends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}

		blends, err := svc.ListBlends(cmd.Context())
		if err != nil {
			return fmt.Errorf("list blends: %w", err)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(blends)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, b := range blends {
			modified := ""
			if b.Modified > 0 {
				modified = b.ModTime().Format(time.DateTime)
			}
			protected := ""
			if svc.IsProtected(b.Filename) {
				protected = "protected"
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", b.Filename, b.Size, modified, protected)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
