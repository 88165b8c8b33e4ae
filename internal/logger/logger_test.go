package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{name: "debug", input: "debug", want: zapcore.DebugLevel},
		{name: "empty defaults to info", input: "", want: zapcore.InfoLevel},
		{name: "upper case warn", input: "WARN", want: zapcore.WarnLevel},
		{name: "error", input: "error", want: zapcore.ErrorLevel},
		{name: "unknown", input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	for _, pretty := range []bool{true, false} {
		l, err := New("info", pretty)
		if err != nil {
			t.Fatalf("New(info, %v) error = %v", pretty, err)
		}
		if l.Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("New(info, %v) enables debug", pretty)
		}
	}

	if _, err := New("nope", false); err == nil {
		t.Error("New() with unknown level should fail")
	}
}

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := WithRequestID(zap.New(core), "abc-123")
	l.Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["req_id"]; got != "abc-123" {
		t.Errorf("req_id = %v, want abc-123", got)
	}
}

func TestFromContext(t *testing.T) {
	fallback := zap.NewNop()
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Error("FromContext() on a bare context should return the fallback")
	}

	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), WithRequestID(zap.New(core), "r-1"))
	FromContext(ctx, fallback).Info("inside")

	if entries := logs.All(); len(entries) != 1 || entries[0].ContextMap()["req_id"] != "r-1" {
		t.Errorf("entries = %v", entries)
	}
}
