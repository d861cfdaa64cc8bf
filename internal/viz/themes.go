package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the live view.
type Theme struct {
	Name     string
	Title    lipgloss.Color
	Canvas   lipgloss.Color
	Label    lipgloss.Color
	Value    lipgloss.Color
	Border   lipgloss.Color
	Plot     lipgloss.Color
	Gradient [2]lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:     "cyberpunk",
		Title:    lipgloss.Color("#00ffff"),
		Canvas:   lipgloss.Color("#ff00ff"),
		Label:    lipgloss.Color("#888899"),
		Value:    lipgloss.Color("#ffffff"),
		Border:   lipgloss.Color("#444466"),
		Plot:     lipgloss.Color("#ffff00"),
		Gradient: [2]lipgloss.Color{"#00ffff", "#ff00ff"},
	}

	ThemeRetroGreen = Theme{
		Name:     "retro",
		Title:    lipgloss.Color("#88ff88"),
		Canvas:   lipgloss.Color("#00ff00"),
		Label:    lipgloss.Color("#00aa00"),
		Value:    lipgloss.Color("#00ff00"),
		Border:   lipgloss.Color("#005500"),
		Plot:     lipgloss.Color("#88ff88"),
		Gradient: [2]lipgloss.Color{"#005500", "#88ff88"},
	}

	ThemeOcean = Theme{
		Name:     "ocean",
		Title:    lipgloss.Color("#00a8cc"),
		Canvas:   lipgloss.Color("#e0f0ff"),
		Label:    lipgloss.Color("#4488aa"),
		Value:    lipgloss.Color("#e0f0ff"),
		Border:   lipgloss.Color("#0077be"),
		Plot:     lipgloss.Color("#ffd700"),
		Gradient: [2]lipgloss.Color{"#0077be", "#00ff88"},
	}

	ThemeSunset = Theme{
		Name:     "sunset",
		Title:    lipgloss.Color("#feca57"),
		Canvas:   lipgloss.Color("#ff6b6b"),
		Label:    lipgloss.Color("#8b6b8c"),
		Value:    lipgloss.Color("#fff5f5"),
		Border:   lipgloss.Color("#ff9ff3"),
		Plot:     lipgloss.Color("#ffc048"),
		Gradient: [2]lipgloss.Color{"#ff6b6b", "#feca57"},
	}

	CurrentTheme = ThemeCyberpunk

	Themes = []Theme{ThemeCyberpunk, ThemeRetroGreen, ThemeOcean, ThemeSunset}
)

// GetTheme returns the named theme, or the default.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

func SetTheme(name string) { CurrentTheme = GetTheme(name) }

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
	CurrentTheme = Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
