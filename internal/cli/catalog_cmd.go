package cli

import (
	"fmt"

	"github.com/alexanderramin/lotplan/internal/cli/formatter"
	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/spf13/cobra"
)

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(newProjectAddCmd(app), newProjectListCmd(app))
	return cmd
}

func newProjectAddCmd(app *App) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &domain.Project{Name: args[0], Color: color}
			if err := app.Catalog.CreateProject(commandContext(cmd), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s [%s]\n", p.Name, p.DisplayID())
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Display color (#rrggbb)")
	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := app.Catalog.Projects(commandContext(cmd))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProjectList(projects))
			return nil
		},
	}
}

func newCompanyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Manage companies",
	}

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Register a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &domain.Company{Name: args[0]}
			if err := app.Catalog.CreateCompany(commandContext(cmd), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created company %s [%s]\n", c.Name, formatter.ShortID(c.ID))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			companies, err := app.Catalog.Companies(commandContext(cmd))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCompanyList(companies))
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func newLotCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lot",
		Short: "Manage lots (trade packages of a project)",
	}
	cmd.AddCommand(newLotAddCmd(app), newLotListCmd(app), newLotAssignCmd(app))
	return cmd
}

func newLotAddCmd(app *App) *cobra.Command {
	var project, company, color string
	var order int

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a lot to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			projectID, err := resolveProjectID(ctx, app, project)
			if err != nil {
				return err
			}
			l := &domain.Lot{ProjectID: projectID, Name: args[0], Color: color, DisplayOrder: order}
			if company != "" {
				companyID, err := resolveCompanyID(ctx, app, company)
				if err != nil {
					return err
				}
				l.CompanyID = &companyID
			}
			if err := app.Catalog.CreateLot(ctx, l); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created lot %s [%s]\n", l.Name, l.DisplayID())
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project name or ID")
	cmd.Flags().StringVar(&company, "company", "", "Company name or ID")
	cmd.Flags().StringVar(&color, "color", "", "Display color (#rrggbb)")
	cmd.Flags().IntVar(&order, "order", 0, "Display order within the project")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newLotListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List lots with their project and company",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := app.Planning.Refresh(commandContext(cmd))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatLotList(snap))
			return nil
		},
	}
}

func newLotAssignCmd(app *App) *cobra.Command {
	var clearCompany bool

	cmd := &cobra.Command{
		Use:   "assign LOT [COMPANY]",
		Short: "Assign a company to a lot, or clear it with --clear",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			lotID, err := resolveLotID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if clearCompany {
				if err := app.Catalog.AssignCompany(ctx, lotID, nil); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Company cleared.")
				return nil
			}
			if len(args) < 2 {
				return fmt.Errorf("company is required unless --clear is given")
			}
			companyID, err := resolveCompanyID(ctx, app, args[1])
			if err != nil {
				return err
			}
			if err := app.Catalog.AssignCompany(ctx, lotID, &companyID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to lot %s.\n", args[1], args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearCompany, "clear", false, "Remove the assigned company")
	return cmd
}
