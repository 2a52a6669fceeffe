package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/daryltucker/pfr-console/internal/metrics"
	"github.com/daryltucker/pfr-console/internal/model"
	"github.com/daryltucker/pfr-console/internal/params"
)

func printParams(w io.Writer, p model.SimulationParameters) {
	fmt.Fprintf(w, "T_in=%g K  Flow_Velocity=%g m/s  T_jacket=%g K\n", p.TIn, p.FlowVelocity, p.TJacket)
}

func printKPIs(w io.Writer, k metrics.KPIs) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Final conversion\t%.1f %%\n", k.FinalConversion)
	fmt.Fprintf(tw, "Max temperature\t%.1f K (%.1f °C)\n", k.MaxTemperature, k.MaxTemperatureC)
	fmt.Fprintf(tw, "Hot spot\t%.2f m\n", k.Profile.HotSpotPosition)
	fmt.Fprintf(tw, "Residence time\t%.2f s\n", k.ResidenceTime)
	fmt.Fprintf(tw, "Efficiency index\t%.2f idx\n", k.EfficiencyIndex)
	fmt.Fprintf(tw, "Molar flow\t%.3f mol/s\n", k.MolarFlow)
	status := "loss"
	if k.IsProfitable {
		status = "profitable"
	}
	fmt.Fprintf(tw, "Hourly profit\t%.1f /h (%s)\n", k.HourlyProfit, status)
	tw.Flush()
}

func printRecords(w io.Writer, recs []model.ChartRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "z [m]\tT [K]\tC [mol/m3]\tT prev\tC prev\t")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%g\t%g\t%s\t%s\t\n", r.Position, r.Temperature, r.Concentration,
			optional(r.TemperaturePrev), optional(r.ConcentrationPrev))
	}
	tw.Flush()
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

func printPresets(w io.Writer, presets []params.Preset) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tALIAS\tT_in [K]\tFlow_Velocity [m/s]\tT_jacket [K]")
	for _, p := range presets {
		alias := p.Alias
		if alias == "" {
			alias = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%g\n", p.Name, alias, p.Parameters.TIn, p.Parameters.FlowVelocity, p.Parameters.TJacket)
	}
	tw.Flush()
}

func printHistory(w io.Writer, recs []model.RunRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "no runs logged")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tOUTCOME\tT_in\tv\tT_jacket\tCONVERSION\tPROFIT/h\tDURATION")
	for _, r := range recs {
		result := fmt.Sprintf("%.1f %%\t%.1f", r.FinalConversion, r.HourlyProfit)
		if r.Outcome != "success" {
			result = r.Error + "\t-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%g\t%s\t%s\n", r.Timestamp.Format("2006-01-02 15:04:05"), r.Outcome,
			r.Parameters.TIn, r.Parameters.FlowVelocity, r.Parameters.TJacket, result, r.Duration.Round(time.Millisecond))
	}
	tw.Flush()
}
