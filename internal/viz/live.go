package viz

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/hardsphere/internal/experiment"
	"github.com/san-kum/hardsphere/internal/sim"
	"github.com/san-kum/hardsphere/internal/trace"
)

const (
	width           = 72
	height          = 22
	historyCapacity = 600
	fps             = 30
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).Padding(1, 2).Width(42)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model plays back frames at a chosen rate of simulated time per second.
// Frames either arrive through a Feed or are supplied up front.
type Model struct {
	header trace.Header
	title  string

	feed    *Feed
	cancel  context.CancelFunc
	play    *trace.Playback
	runErr  error
	rms     []float64
	counts  []float64
	tickNum int

	view3D bool
	camera *Camera
	canvas *Canvas

	recording bool
	gifFrames []*image.Paletted
	gifPath   string
	notice    string
	showHelp  bool
}

// NewModel returns a model for a run described by h.
func NewModel(h trace.Header, title string) Model {
	return Model{
		header:  h,
		title:   title,
		play:    trace.NewPlayback(h.MaxTime),
		camera:  NewCamera(),
		canvas:  NewCanvas(width, height),
		gifPath: "hardsphere.gif",
	}
}

// WithFeed attaches a live feed. cancel is called when the viewer quits.
func (m Model) WithFeed(feed *Feed, cancel context.CancelFunc) Model {
	m.feed = feed
	m.cancel = cancel
	return m
}

// WithFrames preloads a finished run.
func (m Model) WithFrames(frames []*trace.Frame) Model {
	m.appendFrames(frames)
	m.play.Done = true
	return m
}

func (m Model) Init() tea.Cmd {
	if m.feed != nil {
		return tea.Batch(tick(), m.feed.Wait())
	}
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case FramesMsg:
		m.appendFrames(msg)
		if m.feed == nil {
			return m, nil
		}
		return m, m.feed.Wait()
	case DoneMsg:
		m.play.Done = true
		m.runErr = msg.Err
		return m, nil
	case TickMsg:
		m.tickNum++
		m.play.Tick(1.0 / fps)
		if m.recording {
			m.draw()
			m.gifFrames = append(m.gifFrames, m.canvas.Image(8, 16, color.White))
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quit()
		return m, tea.Quit
	case " ":
		m.play.Toggle()
	case "+", "=":
		m.play.Speed *= 1.5
	case "-", "_":
		m.play.Speed /= 1.5
	case "[":
		m.play.Step(-1)
	case "]":
		m.play.Step(1)
	case "r":
		m.play.Restart()
	case "v":
		m.view3D = !m.view3D
	case "x":
		m.camera.RotateX(0.1)
	case "X":
		m.camera.RotateX(-0.1)
	case "y":
		m.camera.RotateY(0.1)
	case "Y":
		m.camera.RotateY(-0.1)
	case "z":
		m.camera.RotateZ(0.1)
	case "Z":
		m.camera.RotateZ(-0.1)
	case ">":
		m.camera.ZoomIn()
	case "<":
		m.camera.ZoomOut()
	case "t":
		NextTheme()
	case "g":
		if m.recording {
			m.notice = m.saveGIF()
			m.recording = false
			m.gifFrames = nil
		} else {
			m.recording = true
		}
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) quit() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.feed != nil {
		m.feed.Stop()
	}
}

func (m *Model) appendFrames(frames []*trace.Frame) {
	m.play.Append(frames...)
	for _, f := range frames {
		m.counts = appendCapped(m.counts, float64(f.Len()))
		m.rms = appendCapped(m.rms, rmsSpeed(f))
	}
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func rmsSpeed(f *trace.Frame) float64 {
	if f.Len() == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range f.Vel {
		sum += v.Norm2()
	}
	return math.Sqrt(sum / float64(f.Len()))
}

func (m *Model) draw() {
	m.canvas.Clear()
	f := m.play.Current()
	if f == nil {
		Render2D(m.canvas, m.header.Walls, nil, nil, 0, 1)
		return
	}
	pos := f.At(m.play.T)
	if m.view3D {
		Render3D(m.canvas, m.header.Walls, pos, f.Radius, m.camera)
	} else {
		Render2D(m.canvas, m.header.Walls, pos, f.Radius, 0, 1)
	}
}

func (m *Model) saveGIF() string {
	if len(m.gifFrames) == 0 {
		return "nothing recorded"
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.gifFrames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 100/fps)
	}
	f, err := os.Create(m.gifPath)
	if err != nil {
		return err.Error()
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("saved %s (%d frames)", m.gifPath, len(anim.Image))
}

func (m Model) status() string {
	switch {
	case m.runErr != nil && !errors.Is(m.runErr, context.Canceled):
		return StatusError.Render("FAILED: " + m.runErr.Error())
	case m.recording:
		return StatusRecording.Render("● REC")
	case !m.play.Running:
		return StatusPaused.Render("PAUSED")
	case !m.play.Done:
		return StatusRunning.Render(AnimatedSpinner(m.tickNum) + " SIMULATING")
	}
	return StatusRunning.Render("PLAYING")
}

func (m Model) View() string {
	m.draw()
	theme := CurrentTheme
	label := lipgloss.NewStyle().Foreground(theme.Label).Width(12)
	value := lipgloss.NewStyle().Foreground(theme.Value)

	canvasView := canvasStyle.Foreground(theme.Canvas).Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(GradientText(strings.ToUpper(m.title), theme.Gradient[0], theme.Gradient[1]) + "\n")
	s.WriteString(m.status() + "\n\n")

	row := func(name, v string) {
		s.WriteString(label.Render(name) + value.Render(v) + "\n")
	}
	row("Model", m.header.Model.String())
	row("Time", fmt.Sprintf("%.4f / %g", m.play.T, m.header.MaxTime))
	row("Speed", fmt.Sprintf("%.3g /s", m.play.Speed))
	row("Frames", fmt.Sprintf("%d", len(m.play.Frames)))
	if f := m.play.Current(); f != nil {
		row("Particles", fmt.Sprintf("%d", f.Len()))
		row("RMS speed", fmt.Sprintf("%.4f", rmsSpeed(f)))
	}
	if m.header.MaxTime > 0 {
		s.WriteString("\n" + ProgressBar(m.play.Progress(), 30) + "\n")
	}

	if len(m.rms) > 1 {
		chart := asciigraph.Plot(m.rms, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("rms speed per frame"))
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(theme.Plot).Render(chart) + "\n")
	}
	if m.header.Model.VariableCount() {
		s.WriteString("\n" + label.Render("Count") + SparklineChart(m.counts, 30) + "\n")
	}
	if m.notice != "" {
		s.WriteString("\n" + Subtle.Render(m.notice) + "\n")
	}
	s.WriteString(helpStyle.Render(Separator(30) + "\nSP:Pause +/-:Speed [ ]:Step\nV:3D T:Theme G:GIF ?:Help Q:Quit"))

	stats := statsStyle.BorderForeground(theme.Border).Render(s.String())
	view := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, stats)
	if m.showHelp {
		return helpOverlay + "\n" + view
	}
	return view
}

const helpOverlay = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume playback    ║
║  + / -    - Faster / slower          ║
║  [ / ]    - Previous / next frame    ║
║  R        - Restart playback         ║
║  V        - Toggle 3D view           ║
║  x y z    - Rotate camera            ║
║  < / >    - Zoom                     ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// RunReplay shows a recorded run.
func RunReplay(h trace.Header, frames []*trace.Frame, title string) error {
	_, err := tea.NewProgram(NewModel(h, title).WithFrames(frames), tea.WithAltScreen()).Run()
	return err
}

// RunLive runs exp while showing its frames. Quitting the viewer cancels
// the run; the returned error is then context.Canceled.
func RunLive(ctx context.Context, exp *experiment.Experiment, title string) (*sim.Result, error) {
	feed, cancel, done := Launch(ctx, exp)
	defer cancel()

	model := NewModel(exp.Header(), title).WithFeed(feed, cancel)
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		cancel()
	}
	feed.Stop()
	out := <-done
	if err != nil {
		return nil, err
	}
	return out.Result, out.Err
}

// Outcome is the end state of a run started by Launch.
type Outcome struct {
	Result *sim.Result
	Err    error
}

// Launch starts exp in the background with a Feed attached. The channel
// receives one Outcome when the run ends.
func Launch(ctx context.Context, exp *experiment.Experiment) (*Feed, context.CancelFunc, <-chan Outcome) {
	ctx, cancel := context.WithCancel(ctx)
	feed := NewFeed(1024)
	exp.GetSimulator().AddSink(feed)

	done := make(chan Outcome, 1)
	go func() {
		result, err := exp.Run(ctx)
		feed.Close(err)
		done <- Outcome{Result: result, Err: err}
	}()
	return feed, cancel, done
}
