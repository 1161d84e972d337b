package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/declarative-dom/ddom-sub003/internal/config"
	"github.com/declarative-dom/ddom-sub003/internal/diag"
	"github.com/declarative-dom/ddom-sub003/internal/templates"
)

func initCmd() *cobra.Command {
	var (
		template    string
		description string
		addr        string
		skipPrompts bool
	)

	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "Create a new ddom project",
		Long: `Create a new ddom project.

With a name, the project goes into a new directory of that name.
Without one, the current directory becomes the project.

Templates:
  minimal     A single in-memory collection (default)
  dashboard   Collections over a polled data file, with seed data
  bucket      Collections over an S3-compatible object store

Examples:
  ddom init
  ddom init board --template=dashboard
  ddom init reports --template=bucket`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runInit(name, template, description, addr, skipPrompts)
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "minimal", "Project template (minimal, dashboard, bucket)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "Serve address written into the config")
	cmd.Flags().BoolVarP(&skipPrompts, "yes", "y", false, "Skip prompts and use defaults")

	return cmd
}

func runInit(name, templateName, description, addr string, skipPrompts bool) error {
	printBanner()
	fmt.Println("  Creating a new ddom project...")
	fmt.Println()

	// Without a name the current directory becomes the project.
	var projectDir string
	madeDir := false
	if name == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		projectDir = wd
		name = filepath.Base(wd)
		if config.Exists(projectDir) {
			return diag.New("DDM083").
				WithDetail("A ddom config already exists in " + projectDir).
				WithSuggestion("Pass a name to create the project in a new directory")
		}
	} else {
		if !isValidProjectName(name) {
			return diag.New("DDM084").
				WithDetail("Project name '" + name + "' is not usable as a directory name").
				WithSuggestion("Use letters, numbers, and hyphens")
		}
		var err error
		projectDir, err = filepath.Abs(name)
		if err != nil {
			return err
		}
		if _, err := os.Stat(projectDir); !os.IsNotExist(err) {
			return diag.New("DDM083").
				WithDetail("Directory '" + name + "' already exists").
				WithSuggestion("Choose a different name or remove the existing directory")
		}
		madeDir = true
	}

	// Prompt only on a terminal; pipes get the defaults.
	if !skipPrompts && isatty.IsTerminal(os.Stdin.Fd()) {
		var err error
		description, err = promptForDescription(description)
		if err != nil {
			return err
		}
	}
	if description == "" {
		description = "A ddom project"
	}

	tmpl, err := templates.Get(templateName)
	if err != nil {
		return err
	}

	if madeDir {
		info("Creating project directory...")
		if err := os.MkdirAll(projectDir, 0755); err != nil {
			return err
		}
	}

	info("Creating project from '%s' template...", templateName)
	if err := tmpl.Create(projectDir, templates.Config{
		ProjectName: name,
		Description: description,
		Addr:        addr,
	}); err != nil {
		if madeDir {
			os.RemoveAll(projectDir)
		}
		errorMsg("Could not create project files")
		return err
	}

	fmt.Println()
	success("Created %s", name)
	fmt.Println()
	fmt.Println("  To get started:")
	fmt.Println()
	if madeDir {
		fmt.Printf("    cd %s\n", name)
	}
	fmt.Println("    ddom serve")
	fmt.Println()
	fmt.Printf("  Collections will be live at %s\n", serveURL(addr))
	fmt.Println()

	return nil
}

func promptForDescription(description string) (string, error) {
	if description != "" {
		return description, nil
	}
	fmt.Printf("? Description: ")
	desc, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(desc), nil
}

func isValidProjectName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == ' ' || r == '/' || r == '\\' {
			return false
		}
		if i == 0 && r >= '0' && r <= '9' {
			return false
		}
	}
	return true
}

// serveURL turns a listen address into something clickable.
func serveURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
