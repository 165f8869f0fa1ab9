package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestSpinnerLifecycle_StopWithSuccess(t *testing.T) {
	var out bytes.Buffer
	s := newSpinner(&out, "Jacobo está pensando")
	s.setStatus("queued")
	s.start()
	// Let it spin briefly
	time.Sleep(200 * time.Millisecond)
	s.stopWithSuccess("Listo")

	got := out.String()
	for _, want := range []string{"Jacobo está pensando", "(queued)", "Listo"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %q", want, got)
		}
	}
}

func TestSpinnerLifecycle_StopWithError(t *testing.T) {
	var out bytes.Buffer
	s := newSpinner(&out, "Connecting")
	s.start()
	time.Sleep(30 * time.Millisecond)
	// Should stop cleanly on error (no panic)
	s.stopWithError()
	s.stopWithError()

	if strings.Contains(out.String(), "✓") {
		t.Error("error stop printed a success mark")
	}
}
