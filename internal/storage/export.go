package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/trace"
)

type ExportFrame struct {
	Time     float64       `json:"time"`
	Count    int           `json:"count"`
	Radii    []float64     `json:"radii,omitempty"`
	Position []dynamo.Vec3 `json:"positions"`
	Velocity []dynamo.Vec3 `json:"velocities"`
}

type ExportData struct {
	Model       string        `json:"model"`
	Particles   int           `json:"particles"`
	Restitution float64       `json:"restitution"`
	MaxTime     float64       `json:"max_time"`
	Walls       dynamo.Walls  `json:"walls"`
	Radii       []float64     `json:"radii,omitempty"`
	Frames      []ExportFrame `json:"frames"`
}

func NewExportData(h trace.Header, frames []*trace.Frame) ExportData {
	data := ExportData{
		Model:       h.Model.String(),
		Particles:   h.Count,
		Restitution: h.Restitution,
		MaxTime:     h.MaxTime,
		Walls:       h.Walls,
		Radii:       h.Radii,
		Frames:      make([]ExportFrame, len(frames)),
	}
	for i, f := range frames {
		ef := ExportFrame{Time: f.Time, Count: f.Len(), Position: f.Pos, Velocity: f.Vel}
		if h.Model.VariableCount() {
			ef.Radii = f.Radius
		}
		data.Frames[i] = ef
	}
	return data
}

// ExportJSON writes the trace of a run as indented JSON to w.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	h, frames, err := trace.Load(s.TracePath(runID))
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(h, frames))
}

// ExportJSONFile is ExportJSON into a new file at path.
func (s *Store) ExportJSONFile(runID, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.ExportJSON(runID, file)
}
