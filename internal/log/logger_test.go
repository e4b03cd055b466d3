package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_ComponentTagging(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{
		Component: ComponentRecalc,
		Handler:   slog.NewTextHandler(&buf, nil),
	})
	l.Info("Budget recalculated", FieldBudgetID, "home")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=recalc") {
		t.Errorf("output = %q, want exactly one component=recalc", out)
	}
	if l.Component() != ComponentRecalc {
		t.Errorf("Component() = %q", l.Component())
	}

	buf.Reset()
	l.WithComponent(ComponentWorker).Info("Request handled")
	out = buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=worker") {
		t.Errorf("output = %q, want exactly one component=worker", out)
	}

	buf.Reset()
	l.With(FieldBudgetID, "home").WithComponent(ComponentWorker).Info("Request handled")
	out = buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "budget_id=home") {
		t.Errorf("output = %q, want one component and the budget_id field", out)
	}

	buf.Reset()
	l.WithFields(NewFields().WithRunID("r1").WithError(errors.New("boom"))).Warn("Run failed")
	if !strings.Contains(buf.String(), "run_id=r1") || !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("output = %q, want run_id and error", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("expected fallback logger")
	}
	l := Discard().WithComponent(ComponentWorker)
	if got := FromContext(NewContext(context.Background(), l)); got != l {
		t.Error("FromContext() did not return stored logger")
	}
}

func TestLogFields_ToSliceOrdered(t *testing.T) {
	got := NewFields().WithBudget("b").WithOperation(OpRecalculate).ToSlice()
	want := []any{FieldBudgetID, "b", FieldOperation, OpRecalculate}
	if len(got) != len(want) {
		t.Fatalf("ToSlice() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ToSlice()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
