package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/schemaflow/pkg/pipeline"
)

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	formats string  // comma-separated output formats
	output  string  // output directory (overrides config)
	style   string  // visual style
	scale   float64 // PNG export scale
	legend  bool    // draw the category legend
	issues  bool    // draw the issue panel
	columns bool    // column rows in the flow overview
	gap     float64 // minimum spacing between boxes
	spacing float64 // vertical distance between schema regions
	noCache bool    // disable caching
	refresh bool    // recompute even on cache hits
}

// newBuildCmd creates the build command, the end-to-end path from schema
// files to diagram artifacts.
func newBuildCmd() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build [dir]",
		Short: "Build migration diagrams from the project schemas",
		Long: `Build migration diagrams from the project schemas.

The command parses the source and target schemas, resolves column lineage
from the field-mapping manifest and in-schema annotations, lays the tables
out, and writes one artifact per requested format into the output directory.

Coverage and consistency problems never abort a build; they are collected
into the diagram model and summarized at the end. Run 'schemaflow validate'
to inspect them.

With no [dir] argument the project is located by walking up from the
working directory to the nearest schemaflow.yaml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runBuild(cmd, dir, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), json, png, pdf, dot (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default from schemaflow.yaml)")
	cmd.Flags().StringVar(&opts.style, "style", "", "visual style: light (default), dark")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "PNG export scale factor")
	cmd.Flags().BoolVar(&opts.legend, "legend", false, "draw the category legend")
	cmd.Flags().BoolVar(&opts.issues, "issues", false, "draw the issue panel")
	cmd.Flags().BoolVar(&opts.columns, "columns", false, "include column rows in the dot flow overview")
	cmd.Flags().Float64Var(&opts.gap, "gap", 0, "minimum spacing between table boxes")
	cmd.Flags().Float64Var(&opts.spacing, "schema-spacing", 0, "vertical distance between schema regions")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached results exist")

	return cmd
}

// runBuild executes the full pipeline and writes the artifacts.
func runBuild(cmd *cobra.Command, dir string, bo *buildOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := loadProject(dir)
	if err != nil {
		return err
	}

	opts := optionsFromConfig(cfg)
	opts.Logger = logger
	opts.Refresh = bo.refresh
	applyBuildFlags(cmd, &opts, bo)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := newRunner(logger, bo.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Building diagrams...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Build failed")
		return err
	}
	spinner.Stop()

	outDir := bo.output
	if outDir == "" {
		outDir = cfg.Output
	}
	paths, err := writeArtifacts(result.Artifacts, opts.Formats, outDir)
	if err != nil {
		return err
	}

	printSuccess("Build complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.TableCount, result.Stats.EdgeCount, result.Stats.IssueCount,
		result.CacheInfo.ModelHit && result.CacheInfo.RenderHit)

	if result.Stats.IssueCount > 0 {
		printNewline()
		printNextStep("Review issues", "schemaflow validate")
	}
	return nil
}

// applyBuildFlags overlays explicitly set flags on the config-derived
// options, so flags win over schemaflow.yaml without clobbering it with
// flag defaults.
func applyBuildFlags(cmd *cobra.Command, opts *pipeline.Options, bo *buildOpts) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		opts.Formats = parseFormats(bo.formats)
	}
	if flags.Changed("style") {
		opts.Style = bo.style
	}
	if flags.Changed("scale") {
		opts.Scale = bo.scale
	}
	if flags.Changed("legend") {
		opts.Legend = bo.legend
	}
	if flags.Changed("issues") {
		opts.Issues = bo.issues
	}
	if flags.Changed("columns") {
		opts.Columns = bo.columns
	}
	if flags.Changed("gap") || flags.Changed("schema-spacing") {
		// Layout tuning starts from the defaults; a zero Layout config
		// would otherwise read as "all values zero".
		opts.SetLayoutDefaults()
		if flags.Changed("gap") {
			opts.Layout.Gap = bo.gap
		}
		if flags.Changed("schema-spacing") {
			opts.Layout.SchemaSpacing = bo.spacing
		}
	}
}

// writeArtifacts writes one file per rendered format under dir, named
// diagram.<format>, and returns the written paths in format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}

	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := filepath.Join(dir, "diagram."+format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
