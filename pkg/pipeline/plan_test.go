package pipeline

import (
	"errors"
	"strings"
	"testing"
)

func phase(name string, requires ...string) Phase {
	return Phase{Name: name, Requires: requires}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		phases  []Phase
		wantErr string
	}{
		{
			name: "build order",
			phases: []Phase{
				phase("dirs"),
				phase("assets", "dirs"),
				phase("styles", "dirs"),
				phase("client", "dirs"),
				phase("server", "client"),
				phase("verify", "server"),
			},
		},
		{
			name:    "duplicate",
			phases:  []Phase{phase("dirs"), phase("dirs")},
			wantErr: "duplicate phase",
		},
		{
			name:    "unknown requirement",
			phases:  []Phase{phase("server", "tsc")},
			wantErr: "unknown phase",
		},
		{
			name:    "self requirement",
			phases:  []Phase{phase("server", "server")},
			wantErr: "requires itself",
		},
		{
			name:    "cycle",
			phases:  []Phase{phase("a", "b"), phase("b", "a")},
			wantErr: "requirement cycle",
		},
		{
			name:    "declared out of order",
			phases:  []Phase{phase("verify", "server"), phase("server")},
			wantErr: "declared before its requirement",
		},
		{
			name:    "unnamed",
			phases:  []Phase{{}},
			wantErr: "has no name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.phases)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidPlan) {
				t.Fatalf("Validate() error = %v, want ErrInvalidPlan", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestPlanOrderAndRequires(t *testing.T) {
	p, err := NewPlan([]Phase{
		phase("dirs"),
		phase("client", "dirs"),
		phase("server", "client", "dirs"),
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	order, err := p.Order()
	if err != nil {
		t.Fatalf("Order() error = %v", err)
	}
	pos := make(map[string]int)
	for i, name := range order {
		pos[name] = i
	}
	if !(pos["dirs"] < pos["client"] && pos["client"] < pos["server"]) {
		t.Errorf("order %v does not respect requirements", order)
	}

	reqs := p.Requires("server")
	if len(reqs) != 2 {
		t.Errorf("Requires(server) = %v, want 2 entries", reqs)
	}
	if p.Requires("missing") != nil {
		t.Error("Requires of unknown phase should be nil")
	}
}
