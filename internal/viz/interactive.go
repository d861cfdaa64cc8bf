package viz

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/hardsphere/internal/config"
	"github.com/san-kum/hardsphere/internal/experiment"
)

var (
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	descStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	idleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	keyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

var presetInfo = map[string]string{
	"headon":  "two spheres, elastic",
	"sticky":  "perfectly inelastic pair",
	"gas":     "elastic hard-sphere gas",
	"merge":   "fusion on hard impacts",
	"shatter": "fission on hard impacts",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// field is one editable configuration value.
type field struct {
	name string
	get  func(c *config.Config) float64
	set  func(c *config.Config, v float64)
}

var fields = []field{
	{"particles", func(c *config.Config) float64 { return float64(c.NumParticles) },
		func(c *config.Config, v float64) { c.NumParticles = int(v) }},
	{"restitution", func(c *config.Config) float64 { return c.Restitution },
		func(c *config.Config, v float64) { c.Restitution = v }},
	{"max_time", func(c *config.Config) float64 { return c.MaxTime },
		func(c *config.Config, v float64) { c.MaxTime = v }},
	{"fusion", func(c *config.Config) float64 { return c.FusionThreshold },
		func(c *config.Config, v float64) { c.FusionThreshold = v }},
	{"fission", func(c *config.Config) float64 { return c.FissionThreshold },
		func(c *config.Config, v float64) { c.FissionThreshold = v }},
	{"seed", func(c *config.Config) float64 { return float64(c.Seed) },
		func(c *config.Config, v float64) { c.Seed = int64(v) }},
}

// App picks a preset, edits it and runs it in the live view.
type App struct {
	state   int
	cursor  int
	presets []string
	cfg     *config.Config
	field   int
	editing bool
	editBuf string
	err     error
	live    Model
	ctx     context.Context
}

func NewApp(ctx context.Context) *App {
	return &App{state: stateMenu, presets: config.ListPresets(), ctx: ctx}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateSim {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			a.live.quit()
			a.state = stateConfig
			return a, nil
		}
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		return a, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch a.state {
	case stateMenu:
		return a.menuKey(key)
	case stateConfig:
		return a.configKey(key)
	}
	return a, nil
}

func (a App) menuKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.presets)-1 {
			a.cursor++
		}
	case "enter", " ":
		a.cfg = config.GetPreset(a.presets[a.cursor])
		a.state, a.field, a.err = stateConfig, 0, nil
	}
	return a, nil
}

func (a App) configKey(msg tea.KeyMsg) (App, tea.Cmd) {
	f := fields[a.field]
	if a.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(a.editBuf, 64); err == nil {
				a.set(f, v)
			}
			a.editing, a.editBuf = false, ""
		case "esc":
			a.editing, a.editBuf = false, ""
		case "backspace":
			if len(a.editBuf) > 0 {
				a.editBuf = a.editBuf[:len(a.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				a.editBuf += s
			}
		}
		return a, nil
	}

	switch msg.String() {
	case "q", "esc":
		a.state = stateMenu
	case "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.field > 0 {
			a.field--
		}
	case "down", "j":
		if a.field < len(fields)-1 {
			a.field++
		}
	case "enter", " ":
		a.editing, a.editBuf = true, strconv.FormatFloat(f.get(a.cfg), 'g', -1, 64)
	case "left", "h":
		a.set(f, f.get(a.cfg)*0.9)
	case "right", "l":
		a.set(f, f.get(a.cfg)*1.1)
	case "s":
		return a.start()
	}
	return a, nil
}

// set changes a field. Explicit particle lists no longer fit once the
// count changes, so they are dropped in favor of random placement.
func (a *App) set(f field, v float64) {
	before := a.cfg.NumParticles
	f.set(a.cfg, v)
	if a.cfg.NumParticles != before {
		p := &a.cfg.Particles
		p.Positions, p.Velocities, p.Masses, p.Radii = nil, nil, nil, nil
	}
}

func (a App) start() (App, tea.Cmd) {
	exp := experiment.New(a.cfg.Clone())
	if err := exp.Setup(); err != nil {
		a.err = err
		return a, nil
	}
	feed, cancel, _ := Launch(a.ctx, exp)
	a.live = NewModel(exp.Header(), a.cfg.Name).WithFeed(feed, cancel)
	a.state, a.err = stateSim, nil
	return a, a.live.Init()
}

func (a App) View() string {
	switch a.state {
	case stateMenu:
		return a.viewMenu()
	case stateConfig:
		return a.viewConfig()
	}
	return a.live.View()
}

func (a App) header(title, sub string) string {
	return "\n\n    " + GradientText(title, CurrentTheme.Gradient[0], CurrentTheme.Gradient[1]) +
		"\n    " + Subtle.Render(sub) + "\n    " + Subtle.Render("─────────────────────────") + "\n\n"
}

func hints(pairs ...string) string {
	var b strings.Builder
	b.WriteString("\n    ")
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyStyle.Render(pairs[i]) + idleStyle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String() + "\n"
}

func (a App) viewMenu() string {
	var b strings.Builder
	b.WriteString(a.header("HARDSPHERE", "event-driven collision simulator"))
	for i, name := range a.presets {
		if i == a.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursorStyle.Render("▸"),
				selectedStyle.Render(fmt.Sprintf("%-10s", name)), descStyle.Render(presetInfo[name])))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", idleStyle.Render(fmt.Sprintf("%-10s", name)), idleStyle.Render(presetInfo[name])))
		}
	}
	b.WriteString(hints("j/k", "navigate", "enter", "select", "q", "quit"))
	return b.String()
}

func (a App) viewConfig() string {
	var b strings.Builder
	b.WriteString(a.header(strings.ToUpper(a.cfg.Name), a.cfg.Model+" model"))
	for i, f := range fields {
		val := fmt.Sprintf("%10.4g", f.get(a.cfg))
		if a.editing && i == a.field {
			val = fmt.Sprintf("%10s", a.editBuf+"_")
		}
		if i == a.field {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", cursorStyle.Render("▸"),
				selectedStyle.Render(fmt.Sprintf("%-12s", f.name)), descStyle.Bold(true).Render(val)))
		} else {
			b.WriteString(fmt.Sprintf("      %s %s\n", idleStyle.Render(fmt.Sprintf("%-12s", f.name)), idleStyle.Render(val)))
		}
	}
	if a.err != nil {
		b.WriteString("\n    " + StatusError.Render(a.err.Error()) + "\n")
	}
	b.WriteString(hints("j/k", "select", "h/l", "adjust", "enter", "edit", "s", "start", "esc", "back"))
	return b.String()
}

// RunInteractive starts the preset browser.
func RunInteractive(ctx context.Context) error {
	_, err := tea.NewProgram(NewApp(ctx), tea.WithAltScreen()).Run()
	return err
}
