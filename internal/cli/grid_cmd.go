package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/lotplan/internal/cli/formatter"
	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/scheduler"
	"github.com/spf13/cobra"
)

// dayMarker loads the special days of layout. A failed lookup is reported on
// warn and the partial result still used.
func (a *App) dayMarker(ctx context.Context, layout *scheduler.GridLayout, warn io.Writer) scheduler.DayMarker {
	if a.Holidays == nil || layout.Len() == 0 {
		return nil
	}
	sd, err := a.Holidays.SpecialDays(ctx, layout.First(), layout.Last())
	if err != nil && warn != nil {
		fmt.Fprintf(warn, "%s\n", formatter.StyleYellow.Render("holidays unavailable: "+err.Error()))
	}
	return sd
}

func (a *App) layout(from time.Time, months int) *scheduler.GridLayout {
	if from.IsZero() {
		from = a.today()
	}
	if months <= 0 {
		months = a.View.Months
	}
	return scheduler.NewGridLayout(from, months, float64(a.cellWidth()), 0)
}

func (a *App) cellWidth() int {
	if a.View.CellWidth < formatter.DefaultCellWidth {
		return formatter.DefaultCellWidth
	}
	return a.View.CellWidth
}

func newGridCmd(app *App) *cobra.Command {
	var months int
	var projects []string
	var collapse, legend bool

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Draw the planning grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			from, err := parseDateFlag(cmd, "from", time.Time{})
			if err != nil {
				return err
			}
			snap, err := app.Planning.Refresh(ctx)
			if err != nil {
				return err
			}

			exp := scheduler.Expansion{AllLots: !collapse}
			if len(projects) == 0 {
				exp.AllProjects = true
			} else {
				exp.Projects = make(map[string]bool, len(projects))
				for _, p := range projects {
					id, err := resolveID("project", p, snap.Projects,
						func(p *domain.Project) string { return p.ID },
						func(p *domain.Project) string { return p.Name })
					if err != nil {
						return err
					}
					exp.Projects[id] = true
				}
			}

			layout := app.layout(from, months)
			marker := app.dayMarker(ctx, layout, cmd.ErrOrStderr())
			rows := scheduler.BuildRows(snap, layout, marker, exp)

			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.RenderGrid(rows, layout, formatter.GridOptions{CellWidth: app.cellWidth()}))
			if legend {
				fmt.Fprintln(out)
				fmt.Fprint(out, formatter.RenderLegend())
			}
			return nil
		},
	}

	cmd.Flags().String("from", "", "First month shown (YYYY-MM-DD, default: today)")
	cmd.Flags().IntVar(&months, "months", 0, "Number of months shown")
	cmd.Flags().StringSliceVar(&projects, "project", nil, "Only these projects (repeatable)")
	cmd.Flags().BoolVar(&collapse, "collapse", false, "One summary row per lot")
	cmd.Flags().BoolVar(&legend, "legend", false, "Print the state legend below the grid")
	return cmd
}

func newLegendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "legend",
		Short: "Show the intervention states and how they are drawn",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderLegend())
			return nil
		},
	}
}
