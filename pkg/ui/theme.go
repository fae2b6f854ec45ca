// Package ui renders review results in the terminal and shows progress while
// a review runs.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fumiya-kume/cra/pkg/analysis"
	"github.com/fumiya-kume/cra/pkg/config"
	"github.com/fumiya-kume/cra/pkg/review"
)

// Theme names accepted by ThemeByName
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeAuto  = "auto"
	ThemePlain = "plain"
)

// Theme defines colors and styles for reports
type Theme struct {
	Name string

	Primary   lipgloss.TerminalColor
	Success   lipgloss.TerminalColor
	Warning   lipgloss.TerminalColor
	Error     lipgloss.TerminalColor
	Info      lipgloss.TerminalColor
	Text      lipgloss.TerminalColor
	TextMuted lipgloss.TerminalColor
	Border    lipgloss.TerminalColor

	Styles ThemeStyles
}

// ThemeStyles contains pre-configured lipgloss styles
type ThemeStyles struct {
	Title   lipgloss.Style
	Section lipgloss.Style
	Panel   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Code    lipgloss.Style

	High   lipgloss.Style
	Medium lipgloss.Style
	Low    lipgloss.Style
	Other  lipgloss.Style

	Good lipgloss.Style
	Fair lipgloss.Style
	Poor lipgloss.Style
}

// NewDarkTheme creates a theme for dark terminals
func NewDarkTheme() Theme {
	theme := Theme{
		Name:      ThemeDark,
		Primary:   lipgloss.Color("#7c3aed"), // Purple
		Success:   lipgloss.Color("#10b981"), // Green
		Warning:   lipgloss.Color("#f59e0b"), // Amber
		Error:     lipgloss.Color("#ef4444"), // Red
		Info:      lipgloss.Color("#3b82f6"), // Blue
		Text:      lipgloss.Color("#f9fafb"),
		TextMuted: lipgloss.Color("#9ca3af"),
		Border:    lipgloss.Color("#4b5563"),
	}
	theme.Styles = createThemeStyles(theme)
	return theme
}

// NewLightTheme creates a theme for light terminals
func NewLightTheme() Theme {
	theme := Theme{
		Name:      ThemeLight,
		Primary:   lipgloss.Color("#5b21b6"),
		Success:   lipgloss.Color("#059669"),
		Warning:   lipgloss.Color("#d97706"),
		Error:     lipgloss.Color("#dc2626"),
		Info:      lipgloss.Color("#2563eb"),
		Text:      lipgloss.Color("#111827"),
		TextMuted: lipgloss.Color("#6b7280"),
		Border:    lipgloss.Color("#d1d5db"),
	}
	theme.Styles = createThemeStyles(theme)
	return theme
}

// NewAutoTheme picks light or dark colors from the terminal background
func NewAutoTheme() Theme {
	adaptive := func(light, dark string) lipgloss.AdaptiveColor {
		return lipgloss.AdaptiveColor{Light: light, Dark: dark}
	}
	theme := Theme{
		Name:      ThemeAuto,
		Primary:   adaptive("#5b21b6", "#7c3aed"),
		Success:   adaptive("#059669", "#10b981"),
		Warning:   adaptive("#d97706", "#f59e0b"),
		Error:     adaptive("#dc2626", "#ef4444"),
		Info:      adaptive("#2563eb", "#3b82f6"),
		Text:      adaptive("#111827", "#f9fafb"),
		TextMuted: adaptive("#6b7280", "#9ca3af"),
		Border:    adaptive("#d1d5db", "#4b5563"),
	}
	theme.Styles = createThemeStyles(theme)
	return theme
}

// NewPlainTheme renders without colors or borders, for --no-color and pipes
func NewPlainTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Name: ThemePlain,
		Styles: ThemeStyles{
			Title: plain, Section: plain, Panel: plain, Muted: plain,
			Label: plain.Width(16),
			Bold: plain, Code: plain,
			High: plain, Medium: plain, Low: plain, Other: plain,
			Good: plain, Fair: plain, Poor: plain,
		},
	}
}

// ThemeByName returns the named theme, dark when unknown
func ThemeByName(name string) Theme {
	switch name {
	case ThemeLight:
		return NewLightTheme()
	case ThemeAuto:
		return NewAutoTheme()
	case ThemePlain:
		return NewPlainTheme()
	default:
		return NewDarkTheme()
	}
}

// ThemeForConfig honours no_color before the theme name
func ThemeForConfig(cfg config.UIConfig) Theme {
	if cfg.NoColor {
		return NewPlainTheme()
	}
	return ThemeByName(cfg.Theme)
}

func createThemeStyles(theme Theme) ThemeStyles {
	return ThemeStyles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Section: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Text).
			Margin(1, 0, 0, 0),

		Panel: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		Label: lipgloss.NewStyle().
			Foreground(theme.TextMuted).
			Width(16),

		Muted: lipgloss.NewStyle().
			Foreground(theme.TextMuted),

		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Text),

		Code: lipgloss.NewStyle().
			Foreground(theme.Warning),

		High:   lipgloss.NewStyle().Foreground(theme.Error).Bold(true),
		Medium: lipgloss.NewStyle().Foreground(theme.Warning).Bold(true),
		Low:    lipgloss.NewStyle().Foreground(theme.Success),
		Other:  lipgloss.NewStyle().Foreground(theme.Info),

		Good: lipgloss.NewStyle().Foreground(theme.Success).Bold(true),
		Fair: lipgloss.NewStyle().Foreground(theme.Warning).Bold(true),
		Poor: lipgloss.NewStyle().Foreground(theme.Error).Bold(true),
	}
}

// SeverityStyle returns the style for an issue severity
func (t Theme) SeverityStyle(severity string) lipgloss.Style {
	switch review.NormalizeSeverity(severity) {
	case string(analysis.SeverityHigh):
		return t.Styles.High
	case string(analysis.SeverityMedium):
		return t.Styles.Medium
	case string(analysis.SeverityLow):
		return t.Styles.Low
	default:
		return t.Styles.Other
	}
}

// ScoreStyle grades a quality score with the same bands as the score emoji
func (t Theme) ScoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 80:
		return t.Styles.Good
	case score >= 60:
		return t.Styles.Fair
	default:
		return t.Styles.Poor
	}
}
