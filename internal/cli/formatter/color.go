package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen   = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow  = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed     = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue    = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple  = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim     = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg      = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader  = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold    = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
	StyleCursor  = lipgloss.NewStyle().Reverse(true)
	StylePreview = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
)

// CategoryStyle returns the block color of a state category.
func CategoryStyle(c domain.Category) lipgloss.Style {
	switch c {
	case domain.CategoryPreparation:
		return StyleYellow
	case domain.CategoryPlanning:
		return StyleBlue
	case domain.CategoryAnnex:
		return StylePurple
	default:
		return StyleFg
	}
}

// StateStyle colors a block by its state's category; finished work is
// faded.
func StateStyle(s domain.State) lipgloss.Style {
	info := s.Info()
	if info.Faded {
		return StyleDim
	}
	return CategoryStyle(info.Category)
}

// StateGlyph is the fill character of a block: hatched for preparation
// work, dashed for unconfirmed plans, solid otherwise.
func StateGlyph(s domain.State) string {
	info := s.Info()
	switch {
	case info.Hatched:
		return "╱"
	case info.Dashed:
		return "╌"
	case info.Faded:
		return "░"
	default:
		return "█"
	}
}

// StateBadge renders "● Label" in the state's color.
func StateBadge(s domain.State) string {
	return StateStyle(s).Render("● " + s.Info().Label)
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
