// Package chart renders the forecast chart to an image file.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"RiskForecast/internal/model"
)

const (
	width  = 10 * vg.Inch
	height = 6 * vg.Inch
)

var (
	observedColor = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	forecastColor = color.RGBA{R: 0x00, G: 0x72, B: 0xb2, A: 0xff}
	bandColor     = color.RGBA{R: 0x00, G: 0x72, B: 0xb2, A: 0x40}
)

// ErrEmptyForecast is returned when there is nothing to draw.
var ErrEmptyForecast = errors.New("chart: empty forecast")

// Title returns the chart title for symbol and horizon.
func Title(symbol string, horizon int) string {
	return fmt.Sprintf("%s Price Forecast (Next %d Days)", symbol, horizon)
}

// RenderForecast draws observed prices, the forecast line and its uncertainty
// band, and writes the chart to path. The format follows the extension
// (.png, .svg, .pdf, ...). Missing parent directories are created.
func RenderForecast(path, symbol string, history *model.PriceSeries, fc *model.Forecast) error {
	if fc == nil || len(fc.Points) == 0 {
		return ErrEmptyForecast
	}

	p := plot.New()
	p.Title.Text = Title(symbol, fc.Horizon)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Price"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	band := make(plotter.XYs, 0, 2*len(fc.Points))
	line := make(plotter.XYs, 0, len(fc.Points))
	for _, pt := range fc.Points {
		x := float64(pt.Date.Unix())
		line = append(line, plotter.XY{X: x, Y: pt.Yhat})
		band = append(band, plotter.XY{X: x, Y: pt.YhatUpper})
	}
	for i := len(fc.Points) - 1; i >= 0; i-- {
		pt := fc.Points[i]
		band = append(band, plotter.XY{X: float64(pt.Date.Unix()), Y: pt.YhatLower})
	}

	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return fmt.Errorf("chart: uncertainty band: %w", err)
	}
	poly.Color = bandColor
	poly.LineStyle.Width = 0
	p.Add(poly)

	fl, err := plotter.NewLine(line)
	if err != nil {
		return fmt.Errorf("chart: forecast line: %w", err)
	}
	fl.Color = forecastColor
	fl.Width = vg.Points(1.5)
	p.Add(fl)
	p.Legend.Add("Forecast", fl)
	p.Legend.Add("Uncertainty", poly)

	if history != nil && history.Len() > 0 {
		obs := make(plotter.XYs, history.Len())
		for i, pt := range history.Points {
			obs[i] = plotter.XY{X: float64(pt.Date.Unix()), Y: pt.Price}
		}
		sc, err := plotter.NewScatter(obs)
		if err != nil {
			return fmt.Errorf("chart: observed prices: %w", err)
		}
		sc.GlyphStyle = draw.GlyphStyle{Color: observedColor, Radius: vg.Points(1), Shape: draw.CircleGlyph{}}
		p.Add(sc)
		p.Legend.Add("Observed", sc)
	}

	if filepath.Ext(path) == "" {
		return fmt.Errorf("chart: %q has no image extension", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("chart: create output dir: %w", err)
		}
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("chart: save %s: %w", path, err)
	}
	return nil
}
