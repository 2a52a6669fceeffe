/*
PURPOSE:
  Browser-facing operator surface. Pushes run state over a websocket and serves
  the chart report, the CSV download and the preset list over plain HTTP.

REQUIREMENTS:
  User-specified:
  - Sliders, presets and the run button drive one shared session.
  - The run button is disabled while a request is in flight.
  - CSV download named simulation_pfr_<YYYY-MM-DD>.csv.

  Implementation-discovered:
  - Every client sees the same state, so transitions are broadcast, not replied.
  - Runs are started on their own goroutine; the reader keeps serving frames.
  - A start while busy is answered with an error frame and changes nothing.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (serve)
  - Uses: internal/engine.Session, internal/transform, internal/metrics

ERROR HANDLING:
  - Bad frames are answered with an "error" frame; the connection stays open.
  - /chart and /export return 404 before the first successful run.

IMPLEMENTATION RULES:
  - Only the hub goroutine writes to websocket connections.
  - Websocket handshakes must be same-origin unless allow_any_origin is set.

USAGE:
  srv := server.New(":9000", session)
  err := srv.Serve(ctx)

RELATED FILES:
  - internal/server/hub.go
  - internal/engine/session.go
*/

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/daryltucker/pfr-console/internal/engine"
	"github.com/daryltucker/pfr-console/internal/metrics"
	"github.com/daryltucker/pfr-console/internal/model"
	"github.com/daryltucker/pfr-console/internal/output"
	"github.com/daryltucker/pfr-console/internal/params"
	"github.com/daryltucker/pfr-console/internal/transform"
)

// View is the state frame every client renders.
type View struct {
	State       string                     `json:"state"`
	Busy        bool                       `json:"busy"`
	LastOutcome string                     `json:"last_outcome"`
	Seq         uint64                     `json:"seq"`
	Parameters  model.SimulationParameters `json:"parameters"`
	Domain      params.Domain              `json:"domain"`
	Records     []model.ChartRecord        `json:"records"`
	KPIs        *metrics.KPIs              `json:"kpis,omitempty"`
	LastError   string                     `json:"last_error,omitempty"`
}

type setContent struct {
	Field string   `json:"field"`
	Value *float64 `json:"value"`
}

type presetContent struct {
	Name string `json:"name"`
}

type csvContent struct {
	Filename string `json:"filename"`
	CSV      string `json:"csv"`
}

// Server serves one session to any number of browsers.
type Server struct {
	addr     string
	session  *engine.Session
	hub      *Hub
	upgrader websocket.Upgrader
	runCtx   context.Context
	cancel   context.CancelFunc
}

// New creates a Server for session and subscribes it to state changes.
func New(addr string, session *engine.Session) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr:    addr,
		session: session,
		hub:     NewHub(),
		runCtx:  ctx,
		cancel:  cancel,
	}
	// a nil CheckOrigin makes the upgrader reject cross-origin handshakes
	if session.Config.AllowAnyOrigin {
		s.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
	session.Controller.Subscribe(func(snap engine.Snapshot) {
		s.hub.Broadcast(newMsg(MsgState, s.view(snap)))
	})
	session.Store.Subscribe(func(model.SimulationParameters) {
		s.hub.Broadcast(newMsg(MsgState, s.view(session.Controller.Snapshot())))
	})
	return s
}

func (s *Server) view(snap engine.Snapshot) View {
	p := s.session.Store.Get()
	v := View{
		State:       snap.State.String(),
		Busy:        snap.State == engine.StateRequesting,
		LastOutcome: snap.LastOutcome.String(),
		Seq:         snap.Seq,
		Parameters:  p,
		Domain:      params.DefaultDomain(),
		Records:     transform.Merge(snap.Current, snap.Previous),
		LastError:   snap.LastError,
	}
	if snap.Current != nil {
		kpi := metrics.Derive(snap.Current, p)
		v.KPIs = &kpi
	}
	return v
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	mux.HandleFunc("GET /chart", s.serveChart)
	mux.HandleFunc("GET /export", s.serveExport)
	mux.HandleFunc("GET /presets", s.servePresets)
	mux.HandleFunc("GET /state", s.serveState)
	return mux
}

// Serve listens on the configured address until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		output.Logger.WithField("addr", s.addr).Info("Operator console listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// Close cancels in-flight runs and disconnects every client.
func (s *Server) Close() {
	s.cancel()
	s.hub.Close()
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		output.Logger.WithField("error", err).Error("Websocket upgrade failed")
		return
	}
	s.hub.Register(conn)
	s.hub.Send(conn, newMsg(MsgState, s.view(s.session.Controller.Snapshot())))

	go func() {
		defer s.hub.Remove(conn)
		for {
			var msg Msg
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					output.Logger.WithField("error", err).Warn("Websocket read failed")
				}
				return
			}
			s.handle(conn, msg)
		}
	}()
}

func (s *Server) handle(conn *websocket.Conn, msg Msg) {
	reply := func(m Msg) { s.hub.Send(conn, m) }
	fail := func(err error) { reply(newMsg(MsgError, err.Error())) }

	switch msg.Type {
	case MsgState:
		reply(newMsg(MsgState, s.view(s.session.Controller.Snapshot())))

	case MsgSet:
		var c setContent
		if err := json.Unmarshal(msg.Content, &c); err != nil {
			fail(fmt.Errorf("bad set content: %w", err))
			return
		}
		if c.Value == nil {
			fail(errors.New("bad set content: value is required"))
			return
		}
		if err := s.session.Set(c.Field, *c.Value); err != nil {
			fail(err)
		}

	case MsgPreset:
		var c presetContent
		if err := json.Unmarshal(msg.Content, &c); err != nil {
			fail(fmt.Errorf("bad preset content: %w", err))
			return
		}
		if _, err := s.session.ApplyPreset(c.Name); err != nil {
			fail(err)
		}

	case MsgStart:
		if s.session.Controller.IsBusy() {
			fail(engine.ErrBusy)
			return
		}
		go func() {
			// failures reach clients through the state broadcast
			if _, err := s.session.Run(s.runCtx); errors.Is(err, engine.ErrBusy) {
				fail(err)
			}
		}()

	case MsgExport:
		var buf bytes.Buffer
		name, err := s.session.WriteCSV(&buf)
		if err != nil {
			fail(err)
			return
		}
		reply(newMsg(MsgCSV, csvContent{Filename: name, CSV: buf.String()}))

	default:
		output.Logger.WithField("type", msg.Type).Warn("Unknown websocket message type")
		fail(fmt.Errorf("no such type %q", msg.Type))
	}
}

func (s *Server) serveChart(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.session.WriteReport(&buf); err != nil {
		httpError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) serveExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := s.session.WriteCSV(&buf)
	if err != nil {
		httpError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = buf.WriteTo(w)
	output.Logger.WithFields(logrus.Fields{"file": name, "remote": r.RemoteAddr}).Info("Results downloaded")
}

func (s *Server) servePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.session.Catalog.List())
}

func (s *Server) serveState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.view(s.session.Controller.Snapshot()))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		output.Logger.WithField("error", err).Error("Failed to write response")
	}
}

func httpError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, output.ErrNoResult) {
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}
