package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	ddom "github.com/declarative-dom/ddom-sub003"
	"github.com/declarative-dom/ddom-sub003/internal/config"
	"github.com/declarative-dom/ddom-sub003/internal/diag"
	"github.com/declarative-dom/ddom-sub003/pkg/declare"
)

func checkCmd() *cobra.Command {
	var (
		configPath string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "check [document]",
		Short: "Validate a document and config without serving",
		Long: `Validate a project without starting a server.

The config is loaded and validated, the document is parsed, and an
engine is built once to bind every source and compile every pipeline.
Problems print as full diagnostics with locations and hints.

Exit status is non-zero when anything fails.

Examples:
  ddom check
  ddom check board.hcl
  ddom check --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docArg := ""
			if len(args) == 1 {
				docArg = args[0]
			}
			return runCheck(docArg, configPath, jsonOut)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default ddom.json in the working directory or a parent)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print diagnostics as JSON, one object per line")

	return cmd
}

func runCheck(docArg, configPath string, jsonOut bool) error {
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		diag.DisableColors()
	}

	failed := 0
	report := func(err error) {
		failed++
		var de *diag.Error
		if jsonOut && errors.As(err, &de) {
			fmt.Println(de.FormatJSON())
			return
		}
		diag.Print(err)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		report(err)
		cfg = config.New()
	} else if err := cfg.Validate(); err != nil {
		report(err)
	} else if !jsonOut {
		if path := cfg.Path(); path != "" {
			success("config    %s", shortPath(path))
		} else {
			info("config    built-in defaults, no project file")
		}
	}

	docPath, err := resolveDocument(docArg, cfg)
	if err != nil {
		report(err)
		return checkResult(failed, jsonOut)
	}

	spec, err := declare.Load(docPath)
	if err != nil {
		report(err)
		return checkResult(failed, jsonOut)
	}
	if !jsonOut {
		success("document  %s  (%d sources, %d collections)",
			shortPath(docPath), len(spec.Sources), len(spec.Collections))
	}

	// One engine build binds every source and compiles every pipeline.
	// Degraded sources log and stay empty; only structural problems
	// fail the build.
	eng, err := ddom.New(spec, ddom.Config{
		ObjectStore: objectStore(cfg, spec),
		Logger:      newLogger(cfg),
	})
	if err != nil {
		report(err)
		return checkResult(failed, jsonOut)
	}
	for _, u := range eng.Units() {
		u.Sync()
		if !jsonOut {
			success("collection %-12s %d items", u.Name, len(u.Collection.Snapshot()))
		}
	}
	eng.Close()

	return checkResult(failed, jsonOut)
}

func checkResult(failed int, jsonOut bool) error {
	if failed == 0 {
		if !jsonOut {
			fmt.Println()
			success("no problems found")
		}
		return nil
	}
	noun := "problems"
	if failed == 1 {
		noun = "problem"
	}
	return fmt.Errorf("check found %d %s", failed, noun)
}
