package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anttttti/DuneBlend/pkg/blend"
	"github.com/anttttti/DuneBlend/pkg/core"
)

var saveName string

var saveCmd = &cobra.Command{
	Use:   "save [file]",
	Short: "Store a blend file",
	Long: `Save stores a local blend. A .md file is uploaded as is. A .json file
holds the sections of a blend (as printed by "show --format json") and is
serialized under --name first.

When the store cannot keep the blend (read-only, static hosting), it is
written to the downloads directory instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		svc, err := openService()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if strings.EqualFold(filepath.Ext(path), ".json") {
			doc := blend.NewDocument()
			if err := json.Unmarshal(data, doc); err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
			name := saveName
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			res, err := svc.SaveBlend(ctx, name, doc)
			if err != nil {
				return err
			}
			report(res)
			return nil
		}

		name := filepath.Base(path)
		if saveName != "" {
			name = core.FilenameFor(saveName)
		}
		stored, err := svc.Upload(ctx, name, data)
		if err != nil {
			return err
		}
		report(core.SaveResult{Filename: stored, Location: core.LocationServer})
		return nil
	},
}

func report(res core.SaveResult) {
	if res.Location == core.LocationDownload {
		fmt.Printf("%s downloaded to %s\n", res.Filename, res.Path)
		return
	}
	fmt.Printf("%s saved\n", res.Filename)
}

func init() {
	rootCmd.AddCommand(saveCmd)
	saveCmd.Flags().StringVarP(&saveName, "name", "n", "", "Blend name (default from the file name)")
}
