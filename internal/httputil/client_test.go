package httputil

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestNewStandardClient_Timeouts(t *testing.T) {
	c := NewStandardClient(5 * time.Second)
	if c.Client.Timeout != 5*time.Second {
		t.Errorf("got timeout %v, want 5s", c.Client.Timeout)
	}
	tr, ok := c.Client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("unexpected transport %T", c.Client.Transport)
	}
	if tr.ResponseHeaderTimeout != 5*time.Second {
		t.Errorf("got header timeout %v", tr.ResponseHeaderTimeout)
	}
}

func TestMockHTTPClient_QueuedResponses(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, `{"ok":true}`).AddErrorResponse(errors.New("boom"))

	req, _ := http.NewRequest(http.MethodPost, "http://solver/simulate", strings.NewReader(`{"T_in":300}`))
	resp, err := mock.Do(req)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != `{"ok":true}` {
		t.Errorf("got body %q", body)
	}
	if got := string(mock.Body(0)); got != `{"T_in":300}` {
		t.Errorf("got recorded body %q", got)
	}

	req, _ = http.NewRequest(http.MethodPost, "http://solver/simulate", nil)
	if _, err := mock.Do(req); err == nil || err.Error() != "boom" {
		t.Errorf("expected queued error, got %v", err)
	}
	if mock.RequestCount() != 2 {
		t.Errorf("got %d requests, want 2", mock.RequestCount())
	}
	if mock.Body(5) != nil {
		t.Error("expected nil body for out of range index")
	}
}
