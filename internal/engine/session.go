/*
PURPOSE:
  The operator session: one parameter store, one controller, and the outputs
  that consume their results.

REQUIREMENTS:
  User-specified:
  - Single-session, single-operator; nothing persists across sessions except
    exported files and the run log.

  Implementation-discovered:
  - Every surface (simulate, console, serve) needs the same wiring, so it lives here.
  - Economics are derived with the parameters active at display time, not the ones
    that produced the result.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli, internal/server
  - Uses: internal/engine, internal/params, internal/transform, internal/metrics, internal/output

ERROR HANDLING:
  - Run log write failures are logged and do not fail the run (resilience).
  - Export/plot/report return output.ErrNoResult before the first success.

USAGE:
  s, err := engine.NewSession(cfg, nil, nil)
  defer s.Close()
  s.Run(ctx)
  path, err := s.Export()

RELATED FILES:
  - internal/engine/controller.go
  - internal/output/csv.go
*/

package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/daryltucker/pfr-console/internal/config"
	"github.com/daryltucker/pfr-console/internal/httputil"
	"github.com/daryltucker/pfr-console/internal/metrics"
	"github.com/daryltucker/pfr-console/internal/model"
	"github.com/daryltucker/pfr-console/internal/output"
	"github.com/daryltucker/pfr-console/internal/params"
	"github.com/daryltucker/pfr-console/internal/timeutil"
	"github.com/daryltucker/pfr-console/internal/transform"
)

// Session wires the console's components together.
type Session struct {
	Config     *config.Config
	Store      *params.Store
	Catalog    *params.Catalog
	Controller *Controller
	Clock      timeutil.Clock

	runLog *output.RunLog
}

// NewSession builds a session from cfg. A nil solver talks HTTP to cfg.SolverURL;
// a nil clock uses the wall clock. Extra options are passed to the Controller.
func NewSession(cfg *config.Config, solver Solver, clock timeutil.Clock, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if solver == nil {
		solver = NewClient(cfg.SolverURL, httputil.NewStandardClient(cfg.RequestTimeout))
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	s := &Session{
		Config:  cfg,
		Store:   params.NewStore(cfg.InitialParameters),
		Catalog: params.DefaultCatalog(),
		Clock:   clock,
	}

	if cfg.RunLog != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", cfg.OutputDir, err)
		}
		path := filepath.Join(cfg.OutputDir, cfg.RunLog)
		w, err := output.OpenRunLog(path)
		if err != nil {
			return nil, fmt.Errorf("failed to init run log at %s: %w", path, err)
		}
		s.runLog = w
	}

	base := []Option{
		WithClock(clock),
		WithBounds(params.DefaultDomain(), cfg.Policy()),
		WithRunHook(s.logRun),
	}
	s.Controller = NewController(solver, s.Store, append(base, opts...)...)
	return s, nil
}

func (s *Session) logRun(rec model.RunRecord) {
	if s.runLog == nil {
		return
	}
	if err := s.runLog.Append(rec); err != nil {
		output.Logger.WithFields(logrus.Fields{"run_id": rec.ID, "error": err}).Error("Failed to write run record")
	}
}

// Run starts a simulation with the current parameters and waits for it.
func (s *Session) Run(ctx context.Context) (*model.SimulationResult, error) {
	return s.Controller.Start(ctx)
}

// Set parses field and writes value into the store.
func (s *Session) Set(field string, value float64) error {
	f, err := params.ParseField(field)
	if err != nil {
		return err
	}
	return s.Store.Set(f, value)
}

// ApplyPreset loads the named preset into the store.
func (s *Session) ApplyPreset(name string) (model.SimulationParameters, error) {
	p, err := s.Catalog.Apply(name, s.Store)
	if err != nil {
		return p, err
	}
	output.Logger.WithFields(logrus.Fields{"preset": name}).Info("Preset applied")
	return p, nil
}

// Records returns the chart records for the current result overlaid with the previous one.
func (s *Session) Records() []model.ChartRecord {
	snap := s.Controller.Snapshot()
	return transform.Merge(snap.Current, snap.Previous)
}

// KPIs derives the metrics of the current result. ok is false before the first success.
func (s *Session) KPIs() (kpi metrics.KPIs, ok bool) {
	cur := s.Controller.CurrentResult()
	if cur == nil {
		return metrics.KPIs{}, false
	}
	return metrics.Derive(cur, s.Store.Get()), true
}

// Export writes the current result as CSV into the output directory.
func (s *Session) Export() (string, error) {
	cur := s.Controller.CurrentResult()
	if cur == nil {
		return "", output.ErrNoResult
	}
	path, err := output.ExportFile(s.Config.OutputDir, cur, s.Clock.Now())
	if err != nil {
		return "", err
	}
	output.Logger.WithField("path", path).Info("Results exported")
	return path, nil
}

// WriteCSV streams the current result as CSV and returns the download file name.
func (s *Session) WriteCSV(w io.Writer) (string, error) {
	cur := s.Controller.CurrentResult()
	if cur == nil {
		return "", output.ErrNoResult
	}
	if err := output.WriteCSV(w, cur); err != nil {
		return "", err
	}
	return output.ExportFileName(s.Clock.Now()), nil
}

// Plot saves PNG profile plots of the current and previous results.
func (s *Session) Plot() ([]string, error) {
	snap := s.Controller.Snapshot()
	if snap.Current == nil {
		return nil, output.ErrNoResult
	}
	base := strings.TrimSuffix(output.ExportFileName(s.Clock.Now()), ".csv")
	return output.SavePlots(s.Config.OutputDir, base, snap.Current, snap.Previous)
}

// WriteReport renders the HTML chart report of the current state to w.
func (s *Session) WriteReport(w io.Writer) error {
	kpi, ok := s.KPIs()
	if !ok {
		return output.ErrNoResult
	}
	return output.RenderChart(w, s.Records(), &kpi)
}

// SaveReport writes the HTML chart report next to the CSV export and returns its path.
func (s *Session) SaveReport() (string, error) {
	var buf bytes.Buffer
	if err := s.WriteReport(&buf); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", s.Config.OutputDir, err)
	}
	name := strings.TrimSuffix(output.ExportFileName(s.Clock.Now()), ".csv") + ".html"
	path := filepath.Join(s.Config.OutputDir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}
	output.Logger.WithField("path", path).Info("Report written")
	return path, nil
}

// History returns up to n of the most recent runs from the run log, oldest first.
// Runs from earlier sessions are included.
func (s *Session) History(n int) ([]model.RunRecord, error) {
	if s.runLog == nil {
		return nil, nil
	}
	return output.ReadRunLog(s.runLog.Path(), n)
}

// Close releases the run log.
func (s *Session) Close() error {
	if s.runLog == nil {
		return nil
	}
	return s.runLog.Close()
}
