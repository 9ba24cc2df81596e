package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	showFormat  string
	showResolve bool
)

var showCmd = &cobra.Command{
	Use:   "show [filename]",
	Short: "Show a stored blend",
	Long: `Show prints a stored blend. The default format is the raw Markdown;
json and yaml print the parsed sections. With --resolve the items are looked
up in the resource catalog first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if showFormat == "md" && !showResolve {
			data, err := svc.ReadBlend(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		}

		doc, err := svc.LoadBlend(ctx, args[0])
		if err != nil {
			return err
		}
		if showResolve {
			if err := resolve(ctx, svc, doc); err != nil {
				return err
			}
		}

		switch showFormat {
		case "json":
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(doc)
		case "yaml":
			encoder := yaml.NewEncoder(os.Stdout)
			encoder.SetIndent(2)
			defer encoder.Close()
			return encoder.Encode(doc)
		case "md":
			data, err := svc.ReadBlend(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Print(serializeAs(string(data), doc))
			return nil
		}
		return fmt.Errorf("unknown format %q (want md, json or yaml)", showFormat)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "md", "Output format: md, json or yaml")
	showCmd.Flags().BoolVar(&showResolve, "resolve", false, "Resolve items against the resource catalog")
}
