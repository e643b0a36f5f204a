package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/schemaflow/internal/config"
	"github.com/matzehuels/schemaflow/pkg/diagram"
	"github.com/matzehuels/schemaflow/pkg/pipeline"
)

// newValidateCmd creates the validate command: parse and resolve without
// rendering, then report the collected issues.
func newValidateCmd() *cobra.Command {
	var (
		interactive bool
		strict      bool
	)

	cmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Check schema coverage and lineage consistency",
		Long: `Check schema coverage and lineage consistency.

The command parses the project schemas and resolves lineage exactly like
build does, but skips layout and rendering. Every collected issue is shown:
unsupported statements, unmapped source columns, conflicting targets,
orphaned foreign keys, and manifest entries pointing at unknown tables.

Use --interactive to browse the issues with a cursor and a detail pane,
and --strict to turn any issue into a non-zero exit for CI.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(cmd.Context(), dir, interactive, strict)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse issues interactively")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when issues exist")

	return cmd
}

// runValidate parses and resolves the project, then reports issues.
func runValidate(ctx context.Context, dir string, interactive, strict bool) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadProject(dir)
	if err != nil {
		return err
	}

	opts := optionsFromConfig(cfg)
	opts.Logger = logger

	prog := newProgress(logger)
	parsed, err := pipeline.ParseSchemas(ctx, opts)
	if err != nil {
		return err
	}
	_, resolveIssues, err := pipeline.ResolveLineage(ctx, parsed, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Checked %d tables across %d schemas", parsed.TableCount(), len(parsed.Order)))

	issues := append(parsed.Issues, resolveIssues...)
	sortIssues(issues)

	if len(issues) == 0 {
		printSuccess("No issues found")
		printKeyValue("Source", cfg.Source.ID)
		printKeyValue("Targets", targetNames(cfg))
		return nil
	}

	if interactive {
		p := tea.NewProgram(NewIssueBrowserModel(issues))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("issue browser: %w", err)
		}
	} else {
		printIssueReport(issues)
	}

	if strict {
		return fmt.Errorf("validation failed: %d issues", len(issues))
	}
	return nil
}

// sortIssues orders issues the way assembled models do, so validate output
// and model JSON agree. Only parse and resolve issues occur here, and
// "parse" sorts before "resolve" on its own.
func sortIssues(issues []diagram.Issue) {
	sort.Slice(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Stage != b.Stage {
			return a.Stage < b.Stage
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Message < b.Message
	})
}

// printIssueReport renders the issues as a table with a per-kind tally.
func printIssueReport(issues []diagram.Issue) {
	rows := make([][]string, len(issues))
	for i, issue := range issues {
		rows[i] = []string{issue.Stage, issue.Kind, issue.Subject, issue.Message}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Stage", "Kind", "Subject", "Message").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= len(issues) {
				return lipgloss.NewStyle()
			}
			if col == 1 {
				return lipgloss.NewStyle().Foreground(kindColor(issues[row].Kind))
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		})

	fmt.Println(t.Render())
	printWarning("%d issues found", len(issues))
	printDetail("%s", kindTally(issues))
}

// kindTally summarizes issue counts per kind, in first-seen order.
// Example: "3 unmapped · 1 conflict".
func kindTally(issues []diagram.Issue) string {
	counts := map[string]int{}
	var order []string
	for _, issue := range issues {
		if counts[issue.Kind] == 0 {
			order = append(order, issue.Kind)
		}
		counts[issue.Kind]++
	}

	parts := make([]string, len(order))
	for i, kind := range order {
		parts[i] = fmt.Sprintf("%d %s", counts[kind], kind)
	}
	return strings.Join(parts, " · ")
}

// targetNames joins the configured target schema IDs for display.
func targetNames(cfg *config.Config) string {
	names := make([]string, len(cfg.Targets))
	for i, t := range cfg.Targets {
		names[i] = t.ID
	}
	return strings.Join(names, ", ")
}
