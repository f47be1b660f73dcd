package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markviz/markviz/pkg/pipeline"
)

// renderCommand creates the render command, the main entry point of the CLI.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a diagram file to SVG, PNG, PDF, JSON, or DOT",
		Long: `Render a diagram file to one or more output formats.

The input file contains a plain-text diagram description. The diagram kind
(flowchart, sequenceDiagram, classDiagram, stateDiagram, erDiagram) is
detected from the first line. Pass "-" to read from stdin.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached results and recompute")

	// Render flags
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot (comma-separated)")
	cmd.Flags().StringVar(&opts.Theme, "theme", "", "builtin theme name (default github-light)")
	cmd.Flags().StringVar(&opts.ThemeFile, "theme-file", "", "TOML theme file, overrides --theme")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "PNG scale factor (default 2.0)")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "rendering backend: builtin (default), graphviz")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "member rows in DOT class/entity nodes")

	return cmd
}

// runRender reads the source, runs the pipeline, and writes artifacts.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	source, err := readSource(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}
	opts.Source = source

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Rendering diagram...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := writeArtifacts(result.Artifacts, opts.Formats, input, output); err != nil {
		return err
	}

	printSuccess("Render complete")
	printStats(string(result.Stats.Kind), result.Stats.Elements, result.CacheInfo.RenderHit)
	return nil
}

// readSource reads the diagram source from a file, or stdin for "-".
func readSource(input string) (string, error) {
	if input == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// basePath derives the base output path from the output and input paths.
// If output is empty, it strips the extension from input. A stdin input
// falls back to "diagram".
func basePath(output, input string) string {
	if output == "" {
		if input == "-" {
			return "diagram"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeArtifacts writes each rendered format to its output file. A single
// format honors --output verbatim (or stdout via "-"); multiple formats
// derive per-format paths from the base path.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) error {
	if len(formats) == 1 {
		format := formats[0]
		path := output
		if path == "" {
			path = basePath("", input) + "." + format
		}
		if path == "-" {
			_, err := os.Stdout.Write(artifacts[format])
			return err
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
		return nil
	}

	base := basePath(output, input)
	for _, format := range formats {
		path := base + "." + format
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
