package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/holiday"
	"github.com/alexanderramin/lotplan/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// HolidaySource supplies the days flagged on the grid.
type HolidaySource interface {
	SpecialDays(ctx context.Context, from, to time.Time) (holiday.SpecialDays, error)
}

// ViewSettings sizes the grid.
type ViewSettings struct {
	Months    int
	CellWidth int
}

// ServeSettings configures the serve command.
type ServeSettings struct {
	APIAddr     string
	MetricsAddr string
	Gatherer    prometheus.Gatherer
	Logger      *slog.Logger
}

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Planning service.PlanningService
	Links    service.LinkService
	Catalog  service.CatalogService
	// Holidays is optional; without it no day is flagged.
	Holidays HolidaySource

	View  ViewSettings
	Serve ServeSettings

	// IsInteractive reports whether stdin is a terminal, so confirmations
	// can prompt instead of refusing.
	IsInteractive func() bool
	// Today anchors the default view; nil means the wall clock.
	Today func() time.Time
}

func (a *App) today() time.Time {
	if a.Today != nil {
		return calendar.Truncate(a.Today())
	}
	return calendar.Today()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "lotplan" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "lotplan",
		Short:         "Construction intervention planner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newProjectCmd(app),
		newLotCmd(app),
		newCompanyCmd(app),
		newInterventionCmd(app),
		newMoveCmd(app),
		newResizeCmd(app),
		newLinkCmd(app),
		newUnlinkCmd(app),
		newLinksCmd(app),
		newConflictsCmd(app),
		newGridCmd(app),
		newBoardCmd(app),
		newServeCmd(app),
		newLegendCmd(),
	)
	// Read by main before the tree is built; declared here so cobra accepts it.
	root.PersistentFlags().String("config", "", "Config file, YAML or JSON (default $LOTPLAN_CONFIG or ~/.lotplan/config.yaml)")

	return root
}
