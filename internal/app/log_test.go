package app

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestTCHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		opID    string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "info without attrs",
			opID:    "op-123",
			level:   slog.LevelInfo,
			message: "scan started",
			want:    "2024-06-15T14:30:45Z\tINFO\top-123\tscan started\n",
		},
		{
			name:    "error with attrs",
			opID:    "op-456",
			level:   slog.LevelError,
			message: "folder failed",
			attrs: []slog.Attr{
				slog.String("path", "/media/tutorials/go-basics"),
				slog.Int("count", 3),
			},
			want: "2024-06-15T14:30:45Z\tERROR\top-456\tfolder failed\tpath=/media/tutorials/go-basics\tcount=3\n",
		},
		{
			name:    "warn",
			opID:    "op-789",
			level:   slog.LevelWarn,
			message: "disk offline",
			attrs:   []slog.Attr{slog.String("disk", "nas")},
			want:    "2024-06-15T14:30:45Z\tWARN\top-789\tdisk offline\tdisk=nas\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &tcHandler{w: &buf, opID: tt.opID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			r.AddAttrs(tt.attrs...)

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTCHandler_WithAttrs(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	var buf bytes.Buffer
	base := &tcHandler{w: &buf, opID: "op-1"}
	h := base.WithAttrs([]slog.Attr{slog.String("mode", "quick")})

	r := slog.NewRecord(ts, slog.LevelInfo, "scan finished", 0)
	r.AddAttrs(slog.Int("folders", 12))

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	want := "2024-06-15T14:30:45Z\tINFO\top-1\tscan finished\tmode=quick\tfolders=12\n"
	if got := buf.String(); got != want {
		t.Errorf("Handle() output = %q, want %q", got, want)
	}

	// Pre-set attrs must not leak back into the base handler.
	buf.Reset()
	r2 := slog.NewRecord(ts, slog.LevelInfo, "plain", 0)
	if err := base.Handle(context.Background(), r2); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	wantBase := "2024-06-15T14:30:45Z\tINFO\top-1\tplain\n"
	if got := buf.String(); got != wantBase {
		t.Errorf("base Handle() output = %q, want %q", got, wantBase)
	}
}
