package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anttttti/DuneBlend/pkg/adapters/fs"
	"github.com/anttttti/DuneBlend/pkg/blend"
)

var (
	fmtWrite   bool
	fmtResolve bool
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [file.md]...",
	Short: "Reformat blend files",
	Long: `Fmt parses local blend files and prints them in canonical form: sections
in document order, items aggregated and sorted, totals and footer refreshed.

Counts only survive when the items carry a source. Use --resolve to look the
items up in the resource catalog; unknown "Name (Source)" lines are kept.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			doc := blend.Parse(string(data))
			if fmtResolve {
				if err := resolve(cmd.Context(), fs.Assets{Root: cfg.StaticDir}, doc); err != nil {
					return err
				}
			}
			out := []byte(serializeAs(string(data), doc))

			if !fmtWrite {
				if _, err := os.Stdout.Write(out); err != nil {
					return err
				}
				continue
			}
			if bytes.Equal(data, out) {
				continue
			}
			if err := os.WriteFile(path, out, 0644); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fmtCmd)
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "Write the result back to the file")
	fmtCmd.Flags().BoolVar(&fmtResolve, "resolve", false, "Resolve items against the resource catalog")
}
