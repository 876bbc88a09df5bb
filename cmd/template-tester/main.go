package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/common/config"
	"github.com/amoylab/taskflow/internal/template"
)

var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
)

var (
	configFile   = flag.String("conf", "", "Path to taskflow.yaml; its push templates are rendered")
	templateFile = flag.String("template", "", "Path to a single template file to render instead")
	contextFile  = flag.String("context", "", "Path to a JSON file overriding the sample context (optional)")
	verbose      = flag.Bool("v", false, "Verbose output with template sources")
	noColor      = flag.Bool("no-color", false, "Disable colored output")
)

// sample is rendered when no context file is given
func sampleContext(baseURL string) *template.Context {
	ctx := template.NewContext(cnst.AppName, baseURL)
	ctx.Kind = "tasks_assigned"
	ctx.CompanySlug = "acme"
	ctx.TaskCount = 3
	return ctx
}

type namedTemplate struct {
	name   string
	source string
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Template Tester - render taskflow push notification templates\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [options]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -conf configs/taskflow.yaml\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "  %s -template title.txt -context context.json -v\n", filepath.Base(os.Args[0]))
	}
	flag.Parse()

	if *noColor {
		disableColors()
	}
	if *configFile == "" && *templateFile == "" {
		printError("Error: -conf or -template must be specified\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(os.Stdout); err != nil {
		printError(fmt.Sprintf("Test failed: %v\n", err))
		os.Exit(1)
	}
}

func run(out io.Writer) error {
	printHeader(out, "Template Tester")

	var templates []namedTemplate
	baseURL := "http://localhost:8000"
	if *templateFile != "" {
		content, err := os.ReadFile(*templateFile)
		if err != nil {
			return fmt.Errorf("failed to load template: %w", err)
		}
		templates = append(templates, namedTemplate{name: filepath.Base(*templateFile), source: string(content)})
	} else {
		cfg, path, err := config.LoadConfig[config.TaskflowConfig](*configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration %s: %w", path, err)
		}
		printSuccess(out, fmt.Sprintf("Loaded push templates from: %s\n", path))
		if cfg.Server.BaseURL != "" {
			baseURL = cfg.Server.BaseURL
		}
		templates = append(templates,
			namedTemplate{name: "title", source: cfg.Push.Templates.Title},
			namedTemplate{name: "body", source: cfg.Push.Templates.Body},
			namedTemplate{name: "url", source: cfg.Push.Templates.URL})
	}

	ctx := sampleContext(baseURL)
	if *contextFile != "" {
		data, err := os.ReadFile(*contextFile)
		if err != nil {
			return fmt.Errorf("failed to load context: %w", err)
		}
		if err := json.Unmarshal(data, ctx); err != nil {
			return fmt.Errorf("invalid context file: %w", err)
		}
	}
	if *verbose {
		printJSON(out, "Context:", ctx)
	}

	return renderAll(out, template.NewRenderer(), templates, ctx)
}

func renderAll(out io.Writer, r *template.Renderer, templates []namedTemplate, ctx *template.Context) error {
	var failed int
	for _, t := range templates {
		printSection(out, t.name)
		if *verbose {
			printTemplate(out, t.source)
		}
		result, err := r.Render(t.source, ctx)
		if err != nil {
			failed++
			printError(fmt.Sprintf("  %s: %v\n", t.name, err))
			continue
		}
		printOutput(out, result)
	}
	if failed > 0 {
		printInfo(out, "Available fields: .AppName .BaseURL .Kind .CompanySlug .TaskCount, plus sprig functions and env\n")
		return fmt.Errorf("%d of %d templates failed", failed, len(templates))
	}
	printSuccess(out, "All templates rendered\n")
	return nil
}

// Print helper functions
func disableColors() {
	colorReset = ""
	colorRed = ""
	colorGreen = ""
	colorYellow = ""
	colorBlue = ""
	colorPurple = ""
	colorCyan = ""
}

func printHeader(out io.Writer, text string) {
	fmt.Fprintf(out, "%s=== %s ===%s\n\n", colorCyan, text, colorReset)
}

func printSection(out io.Writer, text string) {
	fmt.Fprintf(out, "%s--- %s ---%s\n", colorBlue, text, colorReset)
}

func printSuccess(out io.Writer, text string) {
	fmt.Fprintf(out, "%s✓ %s%s", colorGreen, text, colorReset)
}

func printError(text string) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s", colorRed, text, colorReset)
}

func printInfo(out io.Writer, text string) {
	fmt.Fprintf(out, "%s%s%s", colorYellow, text, colorReset)
}

func printTemplate(out io.Writer, content string) {
	for i, line := range strings.Split(content, "\n") {
		fmt.Fprintf(out, "%s%4d | %s%s\n", colorPurple, i+1, colorReset, line)
	}
}

func printOutput(out io.Writer, content string) {
	fmt.Fprint(out, content)
	if !strings.HasSuffix(content, "\n") {
		fmt.Fprintln(out)
	}
}

func printJSON(out io.Writer, label string, data any) {
	if label != "" {
		fmt.Fprintf(out, "%s%s%s\n", colorPurple, label, colorReset)
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(out, "(failed to marshal: %v)\n", err)
		return
	}
	fmt.Fprintln(out, string(b))
}
