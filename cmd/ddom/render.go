package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	ddom "github.com/declarative-dom/ddom-sub003"
	"github.com/declarative-dom/ddom-sub003/internal/diag"
	"github.com/declarative-dom/ddom-sub003/pkg/declare"
	"github.com/declarative-dom/ddom-sub003/pkg/host"
)

func renderCmd() *cobra.Command {
	var (
		configPath string
		collection string
		out        string
		pretty     bool
	)

	cmd := &cobra.Command{
		Use:   "render [document]",
		Short: "Render a document's collections as HTML",
		Long: `Render a document once and print the result.

Sources load, the pipeline runs, every collection renders to HTML,
and the process exits. Nothing stays resident; use serve for live
updates.

Examples:
  ddom render
  ddom render board.hcl --pretty
  ddom render --collection=open
  ddom render -o snapshot.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docArg := ""
			if len(args) == 1 {
				docArg = args[0]
			}
			return runRender(docArg, configPath, collection, out, pretty)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default ddom.json in the working directory or a parent)")
	cmd.Flags().StringVarP(&collection, "collection", "C", "", "Render only the named collection")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to a file instead of stdout")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the HTML, one element per line")

	return cmd
}

func runRender(docArg, configPath, collection, out string, pretty bool) error {
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

	units := eng.Units()
	if collection != "" {
		u, ok := eng.Unit(collection)
		if !ok {
			return diag.Newf(diag.CategoryCLI, "no collection %q in the document", collection)
		}
		units = []*ddom.Unit{u}
	}

	renderer := host.NewRenderer(host.RendererConfig{Pretty: pretty})
	var buf bytes.Buffer
	for i, u := range units {
		u.Sync()
		if len(units) > 1 {
			if i > 0 {
				buf.WriteByte('\n')
			}
			fmt.Fprintf(&buf, "<!-- collection: %s -->\n", u.Name)
		}
		html, err := renderer.InnerHTML(u.Host.Root)
		if err != nil {
			return err
		}
		buf.WriteString(html)
		if !pretty {
			buf.WriteByte('\n')
		}
	}

	if out != "" {
		if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
			return err
		}
		success("Wrote %s", out)
		return nil
	}
	_, err = os.Stdout.Write(buf.Bytes())
	return err
}
