package main

import (
	"os"

	"github.com/spf13/cobra"

	ddom "github.com/declarative-dom/ddom-sub003"
	"github.com/declarative-dom/ddom-sub003/internal/debug"
	"github.com/declarative-dom/ddom-sub003/pkg/declare"
)

func graphCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "graph [document]",
		Short: "Print a document's source and collection wiring",
		Long: `Print how a document wires together, as text.

Sources list with their kind, location, and current item count.
Collections list with their pipeline stages, item and node counts,
and the properties marked mutable for reconciliation.

Examples:
  ddom graph
  ddom graph board.hcl`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docArg := ""
			if len(args) == 1 {
				docArg = args[0]
			}
			return runGraph(docArg, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default ddom.json in the working directory or a parent)")

	return cmd
}

func runGraph(docArg, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	docPath, err := resolveDocument(docArg, cfg)
	if err != nil {
		return err
	}

	spec, err := declare.Load(docPath)
	if err != nil {
		return err
	}

	eng, err := ddom.New(spec, ddom.Config{
		ObjectStore: objectStore(cfg, spec),
		Logger:      newLogger(cfg),
	})
	if err != nil {
		return err
	}
	defer eng.Close()

	eng.SyncAll()
	return debug.Dump(os.Stdout, eng)
}
