package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/cli/formatter"
	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/scheduler"
	"github.com/alexanderramin/lotplan/internal/service"
	"github.com/spf13/cobra"
)

func parseDateFlag(cmd *cobra.Command, name string, fallback time.Time) (time.Time, error) {
	if !cmd.Flags().Changed(name) {
		return fallback, nil
	}
	v, _ := cmd.Flags().GetString(name)
	return calendar.Parse(v)
}

func newMoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move ID",
		Short: "Drag an intervention to another day and cascade through its links",
		Long: `Moves an intervention as if it were grabbed on --grab (default: its start)
and dropped on --drop. Every intervention reachable through outgoing links
is shifted to keep its link satisfied.`,
		Args: cobra.ExactArgs(1),
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

			grab, err := parseDateFlag(cmd, "grab", iv.Start)
			if err != nil {
				return err
			}
			drop, err := parseDateFlag(cmd, "drop", time.Time{})
			if err != nil {
				return err
			}

			res, err := app.Planning.MoveIntervention(ctx, id, grab, drop)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderCascade(res, formatter.SnapshotNames(snap)))
			return nil
		},
	}

	cmd.Flags().String("grab", "", "Day the block is grabbed at (YYYY-MM-DD, default: its start)")
	cmd.Flags().String("drop", "", "Day the grabbed day is dropped on (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("drop")
	return cmd
}

func newResizeCmd(app *App) *cobra.Command {
	var edgeName string

	cmd := &cobra.Command{
		Use:   "resize ID",
		Short: "Move one edge of an intervention and cascade through its links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			edge, err := scheduler.ParseEdge(edgeName)
			if err != nil {
				return err
			}
			day, err := parseDateFlag(cmd, "day", time.Time{})
			if err != nil {
				return err
			}
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

			res, err := app.Planning.ResizeIntervention(ctx, id, edge, day)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderCascade(res, formatter.SnapshotNames(snap)))
			return nil
		},
	}

	cmd.Flags().StringVar(&edgeName, "edge", "right", "Edge to move: left or right")
	cmd.Flags().String("day", "", "Day the edge is released on (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("day")
	return cmd
}

func newLinkCmd(app *App) *cobra.Command {
	var typeName string

	cmd := &cobra.Command{
		Use:   "link SOURCE TARGET",
		Short: "Link two interventions (FS, SF, FF or SS)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			lt, err := domain.ParseLinkType(typeName)
			if err != nil {
				return err
			}
			snap, err := app.Planning.Refresh(ctx)
			if err != nil {
				return err
			}
			ids := make([]string, 2)
			for i, arg := range args {
				ids[i], err = resolveID("intervention", arg, snap.Interventions,
					func(iv *domain.Intervention) string { return iv.ID },
					func(iv *domain.Intervention) string { return iv.Name })
				if err != nil {
					return err
				}
			}

			res, err := app.Planning.LinkTasks(ctx, ids[0], ids[1], lt)
			if err != nil {
				return err
			}
			names := formatter.SnapshotNames(snap)
			verb := "Linked"
			if res.Resolved {
				verb = "Already linked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s [%s]\n",
				verb, names(res.Link.SourceID), res.Link.Type.Abbrev(), names(res.Link.TargetID), formatter.ShortID(res.Link.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", string(domain.FinishToStart), "Link type: FS, SF, FF, SS or the long form")
	return cmd
}

func newUnlinkCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "unlink LINK",
		Short: "Delete a link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			id, err := resolveLinkID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Planning.UnlinkTasks(ctx, id); err != nil {
				if errors.Is(err, service.ErrNotConfirmed) {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Cancelled (pass --yes to delete without a prompt)."))
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted link %s.\n", formatter.ShortID(id))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	return cmd
}

func newLinksCmd(app *App) *cobra.Command {
	var cycles bool

	cmd := &cobra.Command{
		Use:   "links",
		Short: "List links, or with --cycles the groups of interventions linked in a loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			snap, err := app.Planning.Refresh(ctx)
			if err != nil {
				return err
			}
			names := formatter.SnapshotNames(snap)
			if cycles {
				found, err := app.Planning.LinkCycles(ctx)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.RenderCycles(found, names))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderLinks(snap.Links, names))
			return nil
		},
	}

	cmd.Flags().BoolVar(&cycles, "cycles", false, "Report link cycles instead")
	return cmd
}

func newConflictsCmd(app *App) *cobra.Command {
	var lot, state, ivID string

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Check whether a company is double-booked on another project",
		Long: `Checks an existing intervention (--intervention) or a draft given by
--lot, --start, --end and --state. Flags given alongside --intervention
override its saved values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			var cand scheduler.Candidate
			if ivID != "" {
				id, err := resolveInterventionID(ctx, app, ivID)
				if err != nil {
					return err
				}
				iv, err := app.Catalog.Intervention(ctx, id)
				if err != nil {
					return err
				}
				cand = candidateFor(iv)
			} else {
				cand.State = domain.StatePlanned
			}

			if lot != "" {
				lotID, err := resolveLotID(ctx, app, lot)
				if err != nil {
					return err
				}
				cand.LotID = lotID
			}
			if cand.LotID == "" {
				return fmt.Errorf("--lot or --intervention is required")
			}
			var err error
			if cand.Span.Start, err = parseDateFlag(cmd, "start", cand.Span.Start); err != nil {
				return err
			}
			if cand.Span.End, err = parseDateFlag(cmd, "end", cand.Span.End); err != nil {
				return err
			}
			if state != "" {
				if cand.State, err = domain.ParseState(state); err != nil {
					return err
				}
			}

			conflicts, err := app.Planning.CheckConflicts(ctx, cand)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderConflicts(conflicts))
			return nil
		},
	}

	cmd.Flags().StringVar(&ivID, "intervention", "", "Existing intervention to check")
	cmd.Flags().StringVar(&lot, "lot", "", "Lot name or ID")
	cmd.Flags().String("start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&state, "state", "", "Lifecycle state (default planned)")
	return cmd
}
