// Command score-report replays a capture file and renders an HTML
// report: per-metric raw/smoothed charts with flagged frames marked,
// plus the aggregated score summary.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/formlab/posescore/internal/config"
	"github.com/formlab/posescore/internal/replay"
	"github.com/formlab/posescore/internal/score"
	"github.com/formlab/posescore/internal/sequence"
)

func main() {
	capturePath := flag.String("capture", "", "capture JSON file (required)")
	configPath := flag.String("config", "", "tuning config JSON (defaults when empty)")
	outPath := flag.String("out", "report.html", "output HTML file")
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

	page := components.NewPage()
	page.AddCharts(summaryChart(sum))

	ids := make([]string, 0, len(sum.Traces))
	for id := range sum.Traces {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	flagged := flaggedFrames(sum.Errors)
	for _, id := range ids {
		page.AddCharts(traceChart(id, sum.Traces[id], flagged[metricErrorKey(id)]))
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("create %s: %v", *outPath, err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("render report: %v", err)
	}
	log.Printf("wrote %s (%d frames scored, %d dropped, deduction %.2f)",
		*outPath, sum.FramesScored, sum.FramesDropped, sum.Result.TotalDeduction)
}

// metricErrorKey maps a metric trace ID to the error partition it
// feeds, matching the stock metric set.
func metricErrorKey(metricID string) string {
	for _, m := range score.DefaultMetrics() {
		if m.ID == metricID {
			return string(m.Type) + "/" + m.Part.String()
		}
	}
	return metricID
}

// flaggedFrames groups offending frame numbers per error partition.
func flaggedFrames(errs []sequence.FrameError) map[string]map[int]bool {
	out := make(map[string]map[int]bool)
	for _, e := range errs {
		key := string(e.Type) + "/" + e.Part.String()
		if out[key] == nil {
			out[key] = make(map[int]bool)
		}
		out[key][e.Frame] = true
	}
	return out
}

func summaryChart(sum *replay.Summary) *charts.Bar {
	labels := []string{"sequences", "standalone", "total deduction"}
	values := []opts.BarData{
		{Value: len(sum.Result.Sequences)},
		{Value: len(sum.Result.Standalone)},
		{Value: sum.Result.TotalDeduction},
	}

	subtitle := fmt.Sprintf("frames scored=%d dropped=%d", sum.FramesScored, sum.FramesDropped)
	if sum.Rhythm != nil {
		subtitle += fmt.Sprintf(" | cadence %.1f/min (%s)", sum.Rhythm.CadencePerMin, sum.Rhythm.Verdict)
	}
	if sum.Speed != nil {
		subtitle += fmt.Sprintf(" | speed %.1f px/s (%s)", sum.Speed.MeanPxPerSec, sum.Speed.Verdict)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Score Summary", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).AddSeries("score", values,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}

func traceChart(metric string, tr *replay.MetricTrace, flagged map[int]bool) *charts.Line {
	x := make([]string, 0, len(tr.Frames))
	raw := make([]opts.LineData, 0, len(tr.Frames))
	smoothed := make([]opts.LineData, 0, len(tr.Frames))
	flaggedCount := 0
	for i, frame := range tr.Frames {
		x = append(x, strconv.Itoa(frame))
		raw = append(raw, opts.LineData{Value: tr.Raw[i]})
		smoothed = append(smoothed, opts.LineData{Value: tr.Smoothed[i]})
		if flagged[frame] {
			flaggedCount++
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    metric,
			Subtitle: fmt.Sprintf("flagged frames=%d", flaggedCount),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	line.SetXAxis(x).
		AddSeries("raw", raw).
		AddSeries("smoothed", smoothed,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		)
	return line
}
