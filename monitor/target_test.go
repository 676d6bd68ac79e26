package monitor

import (
	"strings"
	"testing"
	"time"
)

func TestNewTarget_Defaults(t *testing.T) {
	target, err := NewTarget("Google DNS", "8.8.8.8")
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}

	if target.Name() != "Google DNS" || target.Host() != "8.8.8.8" {
		t.Errorf("target = %q %q", target.Name(), target.Host())
	}
	if target.Probe() != ProbeICMP {
		t.Errorf("Probe() = %q, want icmp", target.Probe())
	}
	if target.Timeout() != time.Second {
		t.Errorf("Timeout() = %v, want 1s", target.Timeout())
	}
	if target.Privileged() {
		t.Error("Privileged() = true, want false")
	}
}

func TestNewTarget_Options(t *testing.T) {
	target, err := NewTarget("API", "https://api.example.com/health",
		WithProbe(ProbeHTTP),
		WithTimeout(5*time.Second),
		WithPrivileged(true),
	)
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}

	if target.Probe() != ProbeHTTP {
		t.Errorf("Probe() = %q, want http", target.Probe())
	}
	if target.Timeout() != 5*time.Second {
		t.Errorf("Timeout() = %v, want 5s", target.Timeout())
	}
	if !target.Privileged() {
		t.Error("Privileged() = false, want true")
	}
}

func TestNewTarget_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		tname   string
		host    string
		opts    []TargetOption
		wantErr string
	}{
		{"empty name", "", "8.8.8.8", nil, "name cannot be empty"},
		{"empty host", "DNS", "", nil, "host cannot be empty"},
		{"zero timeout", "DNS", "8.8.8.8", []TargetOption{WithTimeout(0)}, "timeout must be positive"},
		{"unknown probe", "DNS", "8.8.8.8", []TargetOption{WithProbe("tcp")}, "unknown probe"},
		{"http without scheme", "API", "api.example.com", []TargetOption{WithProbe(ProbeHTTP)}, "requires an http"},
		{"http bad url", "API", "http://[::1", []TargetOption{WithProbe(ProbeHTTP)}, "invalid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTarget(tt.tname, tt.host, tt.opts...)
			if err == nil {
				t.Fatal("NewTarget() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseProbe(t *testing.T) {
	tests := []struct {
		in      string
		want    Probe
		wantErr bool
	}{
		{"", ProbeICMP, false},
		{"icmp", ProbeICMP, false},
		{"http", ProbeHTTP, false},
		{"tcp", "", true},
	}
	for _, tt := range tests {
		got, err := ParseProbe(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProbe(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseProbe(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
