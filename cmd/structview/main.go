package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/cstruct"
	"github.com/wippyai/cstruct/layout"
	"github.com/wippyai/cstruct/schemafile"
)

func main() {
	var (
		schemaFile  = flag.String("f", "", "Path to YAML schema document")
		structName  = flag.String("struct", "", "Only show this struct")
		modelName   = flag.String("model", "lp64", "Data model (lp64, ilp32)")
		asJSON      = flag.Bool("json", false, "Print layouts as JSON")
		verbose     = flag.Bool("v", false, "Log registration events")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *schemaFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: structview -f <schema.yaml> [-struct name] [-model lp64|ilp32] [-json]")
		fmt.Fprintln(os.Stderr, "       structview -f <schema.yaml> -i  (interactive mode)")
		os.Exit(1)
	}

	model, err := parseModel(*modelName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			cstruct.SetLogger(logger)
			defer logger.Sync() //nolint:errcheck // best effort flush on exit
		}
	}

	layouts, err := load(*schemaFile, model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*schemaFile, layouts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *structName != "" {
		selected := filterLayouts(layouts, *structName)
		if len(selected) == 0 || selected[0].Schema.Name() != *structName {
			fmt.Fprintf(os.Stderr, "Error: struct %q not found in %s\n", *structName, *schemaFile)
			os.Exit(1)
		}
		layouts = selected[:1]
	}

	if err := run(os.Stdout, layouts, *asJSON, term.IsTerminal(int(os.Stdout.Fd()))); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseModel(name string) (layout.DataModel, error) {
	switch strings.ToLower(name) {
	case "lp64", "64":
		return layout.LP64, nil
	case "ilp32", "32", "wasm32":
		return layout.ILP32, nil
	}
	return layout.DataModel{}, fmt.Errorf("unknown data model %q", name)
}

// load registers every struct of the document and returns their layouts in
// dependency order.
func load(path string, model layout.DataModel) ([]*layout.Info, error) {
	doc, err := schemafile.Load(path)
	if err != nil {
		return nil, err
	}

	lib, err := cstruct.New(nil, cstruct.WithDataModel(model))
	if err != nil {
		return nil, fmt.Errorf("create library: %w", err)
	}

	types, err := doc.Register(lib)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	layouts := make([]*layout.Info, len(types))
	for i, t := range types {
		layouts[i] = t.Layout()
	}
	return layouts, nil
}

// filterLayouts keeps layouts whose name contains query, case-insensitively.
// An exact match sorts first.
func filterLayouts(layouts []*layout.Info, query string) []*layout.Info {
	if query == "" {
		return layouts
	}
	q := strings.ToLower(query)
	var exact, rest []*layout.Info
	for _, info := range layouts {
		name := info.Schema.Name()
		switch {
		case name == query:
			exact = append(exact, info)
		case strings.Contains(strings.ToLower(name), q):
			rest = append(rest, info)
		}
	}
	return append(exact, rest...)
}

func run(w io.Writer, layouts []*layout.Info, asJSON, styled bool) error {
	if asJSON {
		out := make([]layoutJSON, len(layouts))
		for i, info := range layouts {
			out[i] = toJSON(info)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for i, info := range layouts {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, renderStruct(info, styled)); err != nil {
			return err
		}
	}
	return nil
}
