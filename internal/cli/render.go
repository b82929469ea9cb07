package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/equipviz/rotorline/pkg/pipeline"
	"github.com/equipviz/rotorline/pkg/render/sink"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string   // output file path (or base path for multiple formats)
	formats   []string // output formats: svg, json, dot, lineage
	firstYear int      // pin the first year of the timeline span
	lastYear  int      // pin the last year of the timeline span
	detailed  bool     // detailed labels in lineage diagrams
	noCache   bool     // bypass the pipeline cache
	refresh   bool     // recompute even on a cache hit
}

// renderCommand creates the render command: decoded workbook in, timeline
// artifacts out.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render an equipment timeline from a decoded workbook table",
		Long: `Render reads a decoded workbook table (.json, .yaml, or .yml), lays out
the equipment timeline, and writes one artifact per requested format.

Formats:
  svg      static timeline document (default)
  json     scene interchange for the interactive surface
  dot      lineage graph as Graphviz DOT text
  lineage  lineage graph rendered to SVG via Graphviz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, lineage (comma-separated)")
	cmd.Flags().IntVar(&opts.firstYear, "first-year", 0, "pin the first year of the span")
	cmd.Flags().IntVar(&opts.lastYear, "last-year", 0, "pin the last year of the span")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "detailed labels in lineage diagrams")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the pipeline cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, source string, opts *renderOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s", filepath.Base(source)))
	spinner.Start()

	p := newProgress(c.Logger)
	result, err := runner.Execute(ctx, pipeline.Options{
		Source:    source,
		Formats:   opts.formats,
		FirstYear: opts.firstYear,
		LastYear:  opts.lastYear,
		Detailed:  opts.detailed,
		Refresh:   opts.refresh,
		Layout:    cfg.Layout,
		Logger:    c.Logger,
	})
	spinner.Stop()
	if err != nil {
		if spinner.Cancelled() {
			printWarning("Cancelled")
			return nil
		}
		printError("Render failed")
		return err
	}
	p.done(fmt.Sprintf("Rendered %d format(s)", len(result.Artifacts)))

	written, err := writeArtifacts(source, opts, result)
	if err != nil {
		return err
	}

	printSuccess("Timeline rendered")
	printStats(result.Stats.RecordCount, result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.RenderHit)
	for _, path := range written {
		printFile(path)
	}
	if len(opts.formats) == 1 && opts.formats[0] == pipeline.FormatSVG {
		printNextStep("Serve it interactively", appName+" serve "+source)
	}
	return nil
}

// writeArtifacts writes one file per rendered format and returns the
// paths written.
func writeArtifacts(source string, opts *renderOpts, result *pipeline.Result) ([]string, error) {
	paths := make([]string, 0, len(opts.formats))
	for _, format := range opts.formats {
		path := outputPath(source, opts.output, format, len(opts.formats) > 1)
		if err := os.WriteFile(path, result.Artifacts[format], 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// outputPath decides where an artifact lands. With a single svg format and
// no explicit output, the well-known export filename is used so the CLI
// and the interactive surface's download produce the same file.
func outputPath(source, output, format string, multi bool) string {
	ext := artifactExt(format)
	if output == "" {
		if format == pipeline.FormatSVG && !multi {
			return sink.ExportFilename
		}
		base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		switch format {
		case pipeline.FormatLineage:
			return base + "_lineage" + ext
		case pipeline.FormatJSON:
			// The source is itself .json; keep the scene distinct from it.
			return base + ".scene.json"
		default:
			return base + ext
		}
	}
	if !multi {
		return output
	}
	base := strings.TrimSuffix(output, filepath.Ext(output))
	if format == pipeline.FormatLineage {
		return base + "_lineage" + ext
	}
	return base + ext
}

func artifactExt(format string) string {
	switch format {
	case pipeline.FormatJSON:
		return ".json"
	case pipeline.FormatDOT:
		return ".dot"
	default:
		return ".svg"
	}
}
