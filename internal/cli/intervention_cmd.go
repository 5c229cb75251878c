package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/cli/formatter"
	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/scheduler"
	"github.com/alexanderramin/lotplan/internal/service"
	"github.com/spf13/cobra"
)

func newInterventionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "intervention",
		Aliases: []string{"iv"},
		Short:   "Manage interventions",
	}

	cmd.AddCommand(
		newInterventionAddCmd(app),
		newInterventionEditCmd(app),
		newInterventionListCmd(app),
		newInterventionShowCmd(app),
		newInterventionVisibilityCmd(app, "hide", false),
		newInterventionVisibilityCmd(app, "unhide", true),
		newInterventionRemoveCmd(app),
	)
	return cmd
}

// interventionFlags are shared by add and edit.
type interventionFlags struct {
	lot, name, start, end, state string
	startTime, endTime           string
	yes                          bool
}

func (f *interventionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.lot, "lot", "", "Lot name or ID")
	cmd.Flags().StringVar(&f.name, "name", "", "Intervention name")
	cmd.Flags().StringVar(&f.start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.state, "state", "", "Lifecycle state (key or label)")
	cmd.Flags().StringVar(&f.startTime, "start-time", "", "Daily start time (HH:MM)")
	cmd.Flags().StringVar(&f.endTime, "end-time", "", "Daily end time (HH:MM)")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "Save even when the company is booked elsewhere")
}

// apply copies every flag the user set onto iv.
func (f *interventionFlags) apply(ctx context.Context, cmd *cobra.Command, app *App, iv *domain.Intervention) error {
	changed := cmd.Flags().Changed
	if changed("lot") {
		lotID, err := resolveLotID(ctx, app, f.lot)
		if err != nil {
			return err
		}
		iv.LotID = lotID
	}
	if changed("name") {
		iv.Name = f.name
	}
	if changed("start") {
		d, err := calendar.Parse(f.start)
		if err != nil {
			return err
		}
		iv.Start, iv.RawStart = d, ""
	}
	if changed("end") {
		d, err := calendar.Parse(f.end)
		if err != nil {
			return err
		}
		iv.End, iv.RawEnd = d, ""
	}
	if changed("state") {
		s, err := domain.ParseState(f.state)
		if err != nil {
			return err
		}
		iv.State = s
	}
	if changed("start-time") {
		iv.StartTime = f.startTime
	}
	if changed("end-time") {
		iv.EndTime = f.endTime
	}
	return nil
}

// saveIntervention saves iv, showing the company conflicts and asking for
// confirmation when there are any.
func saveIntervention(ctx context.Context, app *App, out io.Writer, iv *domain.Intervention) (bool, error) {
	conflicts, err := app.Planning.SaveIntervention(ctx, iv, false)
	if errors.Is(err, service.ErrConflictsNotConfirmed) {
		fmt.Fprint(out, formatter.RenderConflicts(conflicts))
		ok, cerr := app.confirmer().Confirm(ctx, conflicts.Warning())
		if cerr != nil {
			return false, cerr
		}
		if !ok {
			fmt.Fprintln(out, formatter.Dim("Not saved."))
			return false, nil
		}
		_, err = app.Planning.SaveIntervention(ctx, iv, true)
	}
	return err == nil, err
}

func newInterventionAddCmd(app *App) *cobra.Command {
	var f interventionFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Schedule a new intervention on a lot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			iv := &domain.Intervention{}
			if err := f.apply(ctx, cmd, app, iv); err != nil {
				return err
			}
			saved, err := saveIntervention(ctx, app, cmd.OutOrStdout(), iv)
			if err != nil || !saved {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created intervention %s [%s] %s\n", iv.Name, iv.ShortID(), formatter.FormatSpan(iv.Span()))
			return nil
		},
	}

	f.register(cmd)
	_ = cmd.MarkFlagRequired("lot")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newInterventionEditCmd(app *App) *cobra.Command {
	var f interventionFlags

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change an intervention's fields without cascading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			id, err := resolveInterventionID(ctx, app, args[0])
			if err != nil {
				return err
			}
			iv, err := app.Catalog.Intervention(ctx, id)
			if err != nil {
				return err
			}
			if err := f.apply(ctx, cmd, app, iv); err != nil {
				return err
			}
			saved, err := saveIntervention(ctx, app, cmd.OutOrStdout(), iv)
			if err != nil || !saved {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated intervention %s\n", iv.Name)
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

func newInterventionListCmd(app *App) *cobra.Command {
	var lot string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List interventions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			snap, err := app.Planning.Refresh(ctx)
			if err != nil {
				return err
			}
			lotID := ""
			if lot != "" {
				if lotID, err = resolveLotID(ctx, app, lot); err != nil {
					return err
				}
			}

			var ivs []*domain.Intervention
			for _, iv := range snap.Interventions {
				if lotID != "" && iv.LotID != lotID {
					continue
				}
				if !all && !iv.Visible {
					continue
				}
				ivs = append(ivs, iv)
			}
			sort.SliceStable(ivs, func(i, j int) bool {
				if ivs[i].LotID != ivs[j].LotID {
					return ivs[i].LotID < ivs[j].LotID
				}
				return ivs[i].Start.Before(ivs[j].Start)
			})
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatInterventionList(snap, ivs))
			return nil
		},
	}

	cmd.Flags().StringVar(&lot, "lot", "", "Only this lot")
	cmd.Flags().BoolVar(&all, "all", false, "Include hidden interventions")
	return cmd
}

func newInterventionShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show an intervention with its links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			snap, err := app.Planning.Refresh(ctx)
			if err != nil {
				return err
			}
			id, err := resolveID("intervention", args[0], snap.Interventions,
				func(iv *domain.Intervention) string { return iv.ID },
				func(iv *domain.Intervention) string { return iv.Name })
			if err != nil {
				return err
			}
			iv, _ := snap.Intervention(id)
			out := cmd.OutOrStdout()
			names := formatter.SnapshotNames(snap)

			fmt.Fprintln(out, formatter.Header(iv.Name))
			fmt.Fprint(out, formatter.FormatInterventionList(snap, []*domain.Intervention{iv}))
			fmt.Fprintf(out, "Hours: %s – %s\n\n", iv.StartTime, iv.EndTime)

			g := snap.Graph()
			fmt.Fprintln(out, formatter.Bold("Drives"))
			fmt.Fprint(out, formatter.RenderLinks(g.Outgoing(id), names))
			fmt.Fprintln(out, formatter.Bold("Driven by"))
			fmt.Fprint(out, formatter.RenderLinks(g.Incoming(id), names))
			return nil
		},
	}
}

func newInterventionVisibilityCmd(app *App, use string, visible bool) *cobra.Command {
	short := "Hide an intervention from the grid"
	if visible {
		short = "Show a hidden intervention again"
	}
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			id, err := resolveInterventionID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Catalog.SetVisible(ctx, id, visible); err != nil {
				return err
			}
			word := "hidden"
			if visible {
				word = "visible"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Intervention %s is now %s.\n", formatter.ShortID(id), word)
			return nil
		},
	}
}

func newInterventionRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete an intervention and its links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			id, err := resolveInterventionID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Catalog.DeleteIntervention(ctx, id); err != nil {
				if errors.Is(err, service.ErrNotConfirmed) {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Cancelled (pass --yes to delete without a prompt)."))
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted intervention %s.\n", formatter.ShortID(id))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	return cmd
}

// candidateFor builds the conflict-check input for iv.
func candidateFor(iv *domain.Intervention) scheduler.Candidate {
	return scheduler.Candidate{
		InterventionID: iv.ID,
		LotID:          iv.LotID,
		Span:           iv.Span(),
		State:          iv.State,
	}
}
