package cli

import (
	"context"
	"errors"

	"github.com/alexanderramin/lotplan/internal/cli/formatter"
	"github.com/alexanderramin/lotplan/internal/service"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func lotplanHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorYellow)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// NewConfirmer answers from the context when the command passed --yes (or
// an explicit answer), prompts with a huh form on a terminal, and refuses
// otherwise.
func NewConfirmer(interactive func() bool) service.Confirmer {
	return service.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		if ok, given := service.Confirmation(ctx); given {
			return ok, nil
		}
		if interactive == nil || !interactive() {
			return false, nil
		}

		var ok bool
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(prompt).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		)).WithTheme(lotplanHuhTheme())
		if err := form.RunWithContext(ctx); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return false, nil
			}
			return false, err
		}
		return ok, nil
	})
}

func (a *App) confirmer() service.Confirmer {
	return NewConfirmer(a.IsInteractive)
}

// commandContext carries --yes into the services' confirmer. Without the
// flag the confirmer decides on its own.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if f := cmd.Flags().Lookup("yes"); f != nil && f.Changed {
		yes, _ := cmd.Flags().GetBool("yes")
		return service.WithConfirmation(ctx, yes)
	}
	return ctx
}
