package main

import (
	"encoding/json"
	"os"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"
)

// componentState is one entry of the status report.
type componentState struct {
	Component string `json:"component"`
	State     any    `json:"state"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state of the service and its store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}

		report := []componentState{describe(svc)}
		if intro, ok := svc.Store().(introspection.Introspectable); ok {
			report = append(report, describe(intro))
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	},
}

func describe(intro introspection.Introspectable) componentState {
	name := "unknown"
	if comp, ok := intro.(introspection.Component); ok {
		name = comp.ComponentType()
	}
	return componentState{Component: name, State: intro.State()}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
