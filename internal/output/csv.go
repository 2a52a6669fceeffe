/*
PURPOSE:
  Serialises a simulation result to CSV for download.

REQUIREMENTS:
  User-specified:
  - Header "z [m],Temperature [K],Concentration [mol/m3]".
  - One row per spatial step, 4 decimal places.
  - File named simulation_pfr_<YYYY-MM-DD>.csv.

  Implementation-discovered:
  - Export uses the raw profiles, never the rounded chart records.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Session.Export), internal/server (/export)
  - Consumes: internal/model.SimulationResult

ERROR HANDLING:
  - ErrNoResult when there is nothing to export.
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.

USAGE:
  text, err := output.ToCSV(res)
  path, err := output.ExportFile(dir, res, time.Now())
*/

package output

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/daryltucker/pfr-console/internal/model"
)

// ErrNoResult is returned when an export is requested before any successful run.
var ErrNoResult = errors.New("no simulation result to export")

// CSVHeader is the first row of every export.
var CSVHeader = []string{"z [m]", "Temperature [K]", "Concentration [mol/m3]"}

// WriteCSV writes r to w.
func WriteCSV(w io.Writer, r *model.SimulationResult) error {
	if r.Len() == 0 {
		return ErrNoResult
	}
	if err := r.Validate(); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for i := range r.ZAxis {
		record := []string{
			formatFixed(r.ZAxis[i]),
			formatFixed(r.TemperatureProfile[i]),
			formatFixed(r.ConcentrationProfile[i]),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ToCSV returns the CSV export of r as text.
func ToCSV(r *model.SimulationResult) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExportFileName returns the download name for an export made on date.
func ExportFileName(date time.Time) string {
	return fmt.Sprintf("simulation_pfr_%s.csv", date.Format("2006-01-02"))
}

// ExportFile writes r into dir under the dated export name and returns the path.
// An existing file with the same name is overwritten.
func ExportFile(dir string, r *model.SimulationResult, date time.Time) (string, error) {
	text, err := ToCSV(r)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, ExportFileName(date))
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write export %s: %w", path, err)
	}
	return path, nil
}

func formatFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
