// Package report summarizes peptide indexes.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no values to summarize")

// Summary holds descriptive statistics of one column.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Summarize computes the statistics of values. Quantiles are empirical. The standard
// deviation is the sample deviation and is zero for fewer than two values.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	s := Summary{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    sorted[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s
}

// WriteTable prints one row per named summary.
func WriteTable(w io.Writer, names []string, summaries []Summary) error {
	if _, err := fmt.Fprintf(w, "%-10s %10s %12s %12s %12s %12s %12s %12s %12s\n",
		"column", "count", "mean", "stddev", "min", "q1", "median", "q3", "max"); err != nil {
		return err
	}
	for i, s := range summaries {
		if _, err := fmt.Fprintf(w, "%-10s %10d %12.4f %12.4f %12.4f %12.4f %12.4f %12.4f %12.4f\n",
			names[i], s.Count, s.Mean, s.StdDev, s.Min, s.Q1, s.Median, s.Q3, s.Max); err != nil {
			return err
		}
	}
	return nil
}

// integerTicks labels every whole number on an axis.
type integerTicks struct{}

func (integerTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	step := max - min
	every := 1
	if step > 40 {
		every = int(math.Ceil(step / 20))
	}
	for i := int(math.Ceil(min)); i <= int(math.Floor(max)); i++ {
		tick := plot.Tick{Value: float64(i)}
		if i%every == 0 {
			tick.Label = fmt.Sprintf("%d", i)
		}
		ticks = append(ticks, tick)
	}
	return ticks
}

// LengthHistogramSVG renders a histogram of peptide lengths with one bin per length.
func LengthHistogramSVG(lengths []float64) ([]byte, error) {
	if len(lengths) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Peptide Length Distribution"
	p.X.Label.Text = "Peptide Length"
	p.Y.Label.Text = "Peptide Count"
	p.X.Tick.Marker = integerTicks{}

	minLen, maxLen := slices.Min(lengths), slices.Max(lengths)
	bins := int(maxLen-minLen) + 1

	hist, err := plotter.NewHist(plotter.Values(lengths), bins)
	if err != nil {
		return nil, err
	}
	hist.FillColor = color.RGBA{R: 50, G: 100, B: 200, A: 255}
	hist.LineStyle.Width = vg.Points(0.5)
	p.Add(hist)

	var buf bytes.Buffer
	writer, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "svg")
	if err != nil {
		return nil, err
	}
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
