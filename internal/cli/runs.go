package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/causalite/causalite/pkg/errors"
)

// runsCommand creates the runs command group for managing stored runs.
func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List and manage stored search runs",
	}

	cmd.AddCommand(c.runsListCommand())
	cmd.AddCommand(c.runsShowCommand())
	cmd.AddCommand(c.runsDeleteCommand())

	return cmd
}

// runsListCommand creates the "runs list" subcommand.
func (c *CLI) runsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored runs, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.listRuns(cmd.Context())
		},
	}
}

// runsShowCommand creates the "runs show" subcommand.
func (c *CLI) runsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show details of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.showRun(cmd.Context(), args[0])
		},
	}
}

// runsDeleteCommand creates the "runs delete" subcommand.
func (c *CLI) runsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <run-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored run",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateRunID(args[0]); err != nil {
				return err
			}
			s, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted run %s", args[0])
			return nil
		},
	}
}

// listRuns renders all stored runs as a table.
func (c *CLI) listRuns(ctx context.Context) error {
	s, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printInfo("No stored runs")
		printNextStep("Run a search", "causalite search data.csv")
		return nil
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID,
			r.Algorithm,
			r.Status,
			fmt.Sprintf("%.2f", r.Score),
			fmt.Sprintf("%d", len(r.Order)),
			fmt.Sprintf("%d", len(r.Graph.Edges)),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Algorithm", "Status", "Score", "Vars", "Edges", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			switch col {
			case 0:
				return StyleDim
			case 3:
				return StyleHighlight
			}
			return StyleValue
		})

	fmt.Println(t.Render())
	return nil
}

// showRun prints the stored details of a single run.
func (c *CLI) showRun(ctx context.Context, id string) error {
	if err := errors.ValidateRunID(id); err != nil {
		return err
	}
	s, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := s.Get(ctx, id)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRunNotFound, err, "run %s", id)
	}

	printKeyValue("ID", rec.ID)
	printKeyValue("Algorithm", rec.Algorithm)
	printKeyValue("Status", rec.Status)
	printKeyValue("Score", fmt.Sprintf("%.4f", rec.Score))
	printKeyValue("Variables", fmt.Sprintf("%d", len(rec.Graph.Variables)))
	printKeyValue("Edges", fmt.Sprintf("%d", len(rec.Graph.Edges)))
	printKeyValue("Elapsed", (time.Duration(rec.ElapsedMS) * time.Millisecond).String())
	printKeyValue("Created", rec.CreatedAt.Local().Format(time.RFC1123))
	printNextStep("Render it", fmt.Sprintf("causalite render %s --format svg", rec.ID))
	return nil
}
