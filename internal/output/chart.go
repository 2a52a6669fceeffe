package output

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/daryltucker/pfr-console/internal/metrics"
	"github.com/daryltucker/pfr-console/internal/model"
)

// RenderChart writes an HTML page with temperature and concentration line charts
// built from records, overlaying the previous run where records carry it.
func RenderChart(w io.Writer, records []model.ChartRecord, kpi *metrics.KPIs) error {
	if len(records) == 0 {
		return ErrNoResult
	}

	x := make([]string, len(records))
	temp := make([]opts.LineData, len(records))
	conc := make([]opts.LineData, len(records))
	var tempPrev, concPrev []opts.LineData
	for i, rec := range records {
		x[i] = rec.Position
		temp[i] = opts.LineData{Value: rec.Temperature}
		conc[i] = opts.LineData{Value: rec.Concentration}
		if rec.TemperaturePrev != nil || rec.ConcentrationPrev != nil {
			if tempPrev == nil {
				tempPrev = make([]opts.LineData, len(records))
				concPrev = make([]opts.LineData, len(records))
				for j := range tempPrev {
					// "-" is the echarts marker for a missing point.
					tempPrev[j] = opts.LineData{Value: "-"}
					concPrev[j] = opts.LineData{Value: "-"}
				}
			}
			if rec.TemperaturePrev != nil {
				tempPrev[i] = opts.LineData{Value: *rec.TemperaturePrev}
			}
			if rec.ConcentrationPrev != nil {
				concPrev[i] = opts.LineData{Value: *rec.ConcentrationPrev}
			}
		}
	}

	subtitle := fmt.Sprintf("%d steps", len(records))
	if kpi != nil {
		subtitle = fmt.Sprintf("%d steps | conversion %.1f%% | max %.1f K (%.1f °C) | efficiency %.2f idx | profit %.1f/h",
			len(records), kpi.FinalConversion, kpi.MaxTemperature, kpi.MaxTemperatureC, kpi.EfficiencyIndex, kpi.HourlyProfit)
	}

	tempChart := newProfileChart("Temperature Profile", subtitle, "Temperature (K)")
	tempChart.SetXAxis(x).AddSeries("Temperature (K)", temp)
	if tempPrev != nil {
		tempChart.AddSeries("Previous run", tempPrev)
	}

	concChart := newProfileChart("Concentration Profile", "", "Concentration (mol/m³)")
	concChart.SetXAxis(x).AddSeries("Concentration (mol/m³)", conc)
	if concPrev != nil {
		concChart.AddSeries("Previous run", concPrev)
	}

	page := components.NewPage()
	page.PageTitle = "PFR Simulation Results"
	page.AddCharts(tempChart, concChart)
	return page.Render(w)
}

func newProfileChart(title, subtitle, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "PFR Simulation Results", Theme: "dark", Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "z (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName, Scale: opts.Bool(true)}),
	)
	return line
}
