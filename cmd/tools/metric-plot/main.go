// Command metric-plot replays a capture file and renders per-metric
// PNG plots of the raw and smoothed series for tuning review.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/formlab/posescore/internal/config"
	"github.com/formlab/posescore/internal/replay"
)

func main() {
	capturePath := flag.String("capture", "", "capture JSON file (required)")
	configPath := flag.String("config", "", "tuning config JSON (defaults when empty)")
	outDir := flag.String("out", "plots", "output directory for PNG files")
	flag.Parse()

	if *capturePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.MustLoadDefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	rec, err := replay.Load(*capturePath)
	if err != nil {
		log.Fatalf("load capture: %v", err)
	}

	sum, err := replay.Run(cfg, rec)
	if err != nil {
		log.Fatalf("replay: %v", err)
	}
	log.Printf("replayed %d frames (%d dropped), total deduction %.2f",
		sum.FramesScored, sum.FramesDropped, sum.Result.TotalDeduction)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	ids := make([]string, 0, len(sum.Traces))
	for id := range sum.Traces {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		file := filepath.Join(*outDir, fmt.Sprintf("%s.png", id))
		if err := plotTrace(id, sum.Traces[id], file); err != nil {
			log.Fatalf("plot %s: %v", id, err)
		}
		log.Printf("wrote %s", file)
	}
}

func plotTrace(metric string, tr *replay.MetricTrace, file string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - Raw vs Smoothed", metric)
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Value (px)"

	rawPts := make(plotter.XYs, 0, len(tr.Frames))
	smoothPts := make(plotter.XYs, 0, len(tr.Frames))
	for i, frame := range tr.Frames {
		rawPts = append(rawPts, plotter.XY{X: float64(frame), Y: tr.Raw[i]})
		// Smoothed holds NaN until the window fills
		if !math.IsNaN(tr.Smoothed[i]) {
			smoothPts = append(smoothPts, plotter.XY{X: float64(frame), Y: tr.Smoothed[i]})
		}
	}

	rawLine, err := plotter.NewLine(rawPts)
	if err != nil {
		return err
	}
	rawLine.Color = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	rawLine.Width = vg.Points(1)
	p.Add(rawLine)
	p.Legend.Add("raw", rawLine)

	if len(smoothPts) > 0 {
		smoothLine, err := plotter.NewLine(smoothPts)
		if err != nil {
			return err
		}
		smoothLine.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
		smoothLine.Width = vg.Points(2)
		p.Add(smoothLine)
		p.Legend.Add("smoothed", smoothLine)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
