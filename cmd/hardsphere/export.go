package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/hardsphere/internal/analysis"
	"github.com/san-kum/hardsphere/internal/export"
	"github.com/san-kum/hardsphere/internal/storage"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// output opens outPath, or stdout when it is empty.
func output() (io.WriteCloser, error) {
	if outPath == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outPath)
}

func finish(w io.WriteCloser, err error) error {
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err == nil && outPath != "" {
		fmt.Fprintf(os.Stderr, "exported to %s\n", outPath)
	}
	return err
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if _, err := st.Load(args[0]); err != nil {
		return err
	}
	w, err := output()
	if err != nil {
		return err
	}
	return finish(w, st.ExportJSON(args[0], w))
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, h, frames, err := loadTrace(args[0])
	if err != nil {
		return err
	}
	w, err := output()
	if err != nil {
		return err
	}
	return finish(w, analysis.ComputeSeries(h, frames).WriteCSV(w))
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, h, frames, err := loadTrace(args[0])
	if err != nil {
		return err
	}

	var svg string
	if svgColumn != "" {
		series := analysis.ComputeSeries(h, frames)
		values, err := series.Column(svgColumn)
		if err != nil {
			return err
		}
		svg = export.SeriesToSVG(series.Times, values, svgSize, svgSize/2, "#00d7ff")
		if svg == "" {
			return fmt.Errorf("not enough frames to plot %s", svgColumn)
		}
	} else {
		ax, err := analysis.AxisIndex(xAxis)
		if err != nil {
			return err
		}
		ay, err := analysis.AxisIndex(yAxis)
		if err != nil {
			return err
		}
		svg, err = export.FrameToSVG(frameAt(frames, atTime), h.Walls, ax, ay, svgSize)
		if err != nil {
			return err
		}
	}

	w, err := output()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, svg+"\n")
	return finish(w, err)
}
