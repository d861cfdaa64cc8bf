// Package gui is a raylib 3D viewer for collision runs.
package gui

import (
	"context"
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/experiment"
	"github.com/san-kum/hardsphere/internal/sim"
	"github.com/san-kum/hardsphere/internal/trace"
	"github.com/san-kum/hardsphere/internal/viz"
)

const (
	screenW      = 1280
	screenH      = 720
	maxTelemetry = 300

	// worldSize is the edge length of the longest enclosure side on screen.
	worldSize = 10.0
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColWalls   = rl.NewColor(90, 90, 110, 255)
)

type App struct {
	Header trace.Header
	Title  string
	Play   *trace.Playback
	Feed   *viz.Feed

	Camera    rl.Camera3D
	Orbit     bool
	ShowVel   bool
	Font      rl.Font
	Telemetry []float64

	center dynamo.Vec3
	scale  float64
}

func initWindow(title string) {
	rl.InitWindow(screenW, screenH, title)
	rl.SetTargetFPS(60)
	rl.SetExitKey(rl.KeyQ)
}

// loadFont uses Liberation Mono when installed and the raylib default
// font otherwise.
func loadFont() rl.Font {
	font := rl.LoadFontEx("/usr/share/fonts/liberation/LiberationMono-Regular.ttf", 32, nil, 0)
	if font.Texture.ID == 0 {
		return rl.GetFontDefault()
	}
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

func NewApp(h trace.Header, title string) *App {
	a := &App{
		Header:  h,
		Title:   title,
		Play:    trace.NewPlayback(h.MaxTime),
		ShowVel: false,
		Camera: rl.NewCamera3D(
			rl.NewVector3(14, 10, 14),
			rl.NewVector3(0, 0, 0),
			rl.NewVector3(0, 1, 0),
			45.0,
			rl.CameraPerspective,
		),
		scale: 1,
	}
	span := 0.0
	for k := 0; k < 3; k++ {
		a.center[k] = (h.Walls[k][0] + h.Walls[k][1]) / 2
		span = math.Max(span, h.Walls[k][1]-h.Walls[k][0])
	}
	if span > 0 {
		a.scale = worldSize / span
	}
	return a
}

// Replay opens a window showing a recorded run and blocks until it closes.
func Replay(h trace.Header, frames []*trace.Frame, title string) {
	initWindow(title)
	defer rl.CloseWindow()

	app := NewApp(h, title)
	app.Font = loadFont()
	app.ingest(frames)
	app.Play.Done = true
	app.RunLoop()
}

// Live runs exp while showing it. Closing the window cancels the run.
func Live(ctx context.Context, exp *experiment.Experiment, title string) (*sim.Result, error) {
	feed, cancel, done := viz.Launch(ctx, exp)
	defer cancel()

	initWindow(title)
	app := NewApp(exp.Header(), title)
	app.Font = loadFont()
	app.Feed = feed
	app.RunLoop()
	rl.CloseWindow()

	cancel()
	feed.Stop()
	out := <-done
	return out.Result, out.Err
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		a.Update()
		a.Draw()
	}
}

func (a *App) ingest(frames []*trace.Frame) {
	a.Play.Append(frames...)
	for _, f := range frames {
		a.Telemetry = append(a.Telemetry, rmsSpeed(f))
	}
	if len(a.Telemetry) > maxTelemetry {
		a.Telemetry = a.Telemetry[len(a.Telemetry)-maxTelemetry:]
	}
}

func (a *App) Update() {
	if a.Feed != nil && !a.Play.Done {
		frames, done := a.Feed.Poll(512)
		a.ingest(frames)
		a.Play.Done = done
	}

	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		a.Play.Toggle()
	case rl.IsKeyPressed(rl.KeyRight):
		a.Play.Step(1)
	case rl.IsKeyPressed(rl.KeyLeft):
		a.Play.Step(-1)
	case rl.IsKeyPressed(rl.KeyUp):
		a.Play.Speed *= 1.5
	case rl.IsKeyPressed(rl.KeyDown):
		a.Play.Speed /= 1.5
	case rl.IsKeyPressed(rl.KeyR):
		a.Play.Restart()
	case rl.IsKeyPressed(rl.KeyV):
		a.ShowVel = !a.ShowVel
	case rl.IsKeyPressed(rl.KeyO):
		a.Orbit = !a.Orbit
	}

	if a.Orbit {
		rl.UpdateCamera(&a.Camera, rl.CameraOrbital)
	}
	a.Play.Tick(float64(rl.GetFrameTime()))
}

func (a *App) toWorld(p dynamo.Vec3) rl.Vector3 {
	w := p.Sub(a.center).Scale(a.scale)
	return rl.NewVector3(float32(w[0]), float32(w[1]), float32(w[2]))
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)
	a.drawSim()
	a.DrawHUD()
	rl.EndDrawing()
}

func (a *App) drawSim() {
	rl.BeginMode3D(a.Camera)
	defer rl.EndMode3D()

	w := a.Header.Walls
	size := dynamo.Vec3{w[0][1] - w[0][0], w[1][1] - w[1][0], w[2][1] - w[2][0]}.Scale(a.scale)
	rl.DrawCubeWires(rl.NewVector3(0, 0, 0), float32(size[0]), float32(size[1]), float32(size[2]), ColWalls)

	f := a.Play.Current()
	if f == nil {
		return
	}
	pos := f.At(a.Play.T)
	speeds := f.Speeds()
	maxSpeed := 0.0
	for _, s := range speeds {
		maxSpeed = math.Max(maxSpeed, s)
	}

	for i, p := range pos {
		center := a.toWorld(p)
		rl.DrawSphere(center, float32(f.Radius[i]*a.scale), speedColor(speeds[i], maxSpeed))
		if a.ShowVel {
			tip := a.toWorld(p.Add(f.Vel[i].Scale(0.1)))
			rl.DrawLine3D(center, tip, ColAccent)
		}
	}
}

func (a *App) DrawHUD() {
	a.drawText("hardsphere", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s :: %s", a.Title, a.Header.Model), 190, 34, 16, ColText)

	status, col := "PLAYING", ColSelect
	switch {
	case !a.Play.Running:
		status, col = "PAUSED", ColTextDim
	case !a.Play.Done:
		status = "SIMULATING"
	}
	a.drawText(status, 1130, 30, 16, col)

	y := 70
	line := func(format string, args ...interface{}) {
		a.drawText(fmt.Sprintf(format, args...), 30, y, 16, ColText)
		y += 22
	}
	line("t      %.5f / %g", a.Play.T, a.Header.MaxTime)
	line("speed  %.3g", a.Play.Speed)
	line("frames %d", len(a.Play.Frames))
	if f := a.Play.Current(); f != nil {
		line("n      %d", f.Len())
	}

	a.DrawTelemetry()
	a.drawText("[SPACE] PAUSE  [←/→] STEP  [↑/↓] SPEED  [R] RESTART  [V] VELOCITIES  [O] ORBIT  [Q] QUIT", 420, 690, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 690, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

// DrawTelemetry plots the rms speed of recent frames.
func (a *App) DrawTelemetry() {
	if len(a.Telemetry) < 2 {
		return
	}

	rectX, rectY := 30, 600
	width, height := 400, 60

	minVal, maxVal := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := float32(rectX) + (float32(i)/float32(len(a.Telemetry)))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(rectY+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("v_rms %.3g", a.Telemetry[len(a.Telemetry)-1]), rectX+width+10, rectY+height-10, 14, ColText)
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

// speedColor shades from blue for slow particles to orange for the fastest.
func speedColor(speed, max float64) rl.Color {
	t := 0.0
	if max > 0 {
		t = speed / max
	}
	return rl.NewColor(uint8(60+t*195), uint8(110+t*40), uint8(255-t*215), 255)
}
