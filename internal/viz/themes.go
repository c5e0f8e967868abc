package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme of the dashboard.
type Theme struct {
	Name      string
	Title     lipgloss.Color
	Natural   lipgloss.Color
	Retention lipgloss.Color
	Overflow  lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

var (
	ThemeRiver = Theme{
		Name:      "river",
		Title:     lipgloss.Color("#00ccff"),
		Natural:   lipgloss.Color("#0077be"),
		Retention: lipgloss.Color("#00a8cc"),
		Overflow:  lipgloss.Color("#ff9f43"),
		Text:      lipgloss.Color("#e0f0ff"),
		Muted:     lipgloss.Color("#4488aa"),
		Success:   lipgloss.Color("#00ff88"),
		Warning:   lipgloss.Color("#ffcc00"),
		Error:     lipgloss.Color("#ff4444"),
	}

	ThemeRetroGreen = Theme{
		Name:      "retro",
		Title:     lipgloss.Color("#88ff88"),
		Natural:   lipgloss.Color("#00ff00"),
		Retention: lipgloss.Color("#00cc00"),
		Overflow:  lipgloss.Color("#ffff00"),
		Text:      lipgloss.Color("#00ff00"),
		Muted:     lipgloss.Color("#005500"),
		Success:   lipgloss.Color("#88ff88"),
		Warning:   lipgloss.Color("#ffff00"),
		Error:     lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:      "minimal",
		Title:     lipgloss.Color("#ffffff"),
		Natural:   lipgloss.Color("#0088ff"),
		Retention: lipgloss.Color("#cccccc"),
		Overflow:  lipgloss.Color("#ffaa00"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#888888"),
		Success:   lipgloss.Color("#00ff00"),
		Warning:   lipgloss.Color("#ffaa00"),
		Error:     lipgloss.Color("#ff0000"),
	}

	CurrentTheme = ThemeRiver

	Themes = []Theme{
		ThemeRiver,
		ThemeRetroGreen,
		ThemeMinimal,
	}
)

// GetTheme returns a theme by name, falling back to river.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeRiver
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// nextTheme returns the theme after the current one.
func nextTheme() string {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}
