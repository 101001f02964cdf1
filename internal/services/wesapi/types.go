package wesapi

import (
	"context"

	"wesline/internal/notation"
)

// Upstream names reported in responses and logs.
const (
	UpstreamAPI    = "api"
	UpstreamWorker = "worker"
)

// API is the set of Wes API operations wesline consumes. The Wes API and the
// Cloudflare Worker both implement it, as does the failover pair.
type API interface {
	Name() string
	GenerateLine(ctx context.Context, req LineRequest) (*LineResponse, error)
	ValidateCounterpoint(ctx context.Context, req CounterpointRequest) (*CounterpointResult, error)
	Patterns(ctx context.Context) ([]Pattern, error)
	Health(ctx context.Context) error
}

// LineRequest asks the Wes API for a bebop line over a chord.
type LineRequest struct {
	Chord     string   `json:"chord"`
	Scale     string   `json:"scale,omitempty"`
	Patterns  []string `json:"patterns,omitempty"`
	StartNote string   `json:"start_note,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Length    int      `json:"length,omitempty"`
}

// LineResponse is a generated line. Upstream is filled in by the client.
type LineResponse struct {
	Notes    []string `json:"notes"`
	Chord    string   `json:"chord,omitempty"`
	Patterns []string `json:"patterns,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Upstream string   `json:"upstream,omitempty"`
}

// CounterpointRequest submits a cantus firmus and counterpoint for checking.
type CounterpointRequest struct {
	CantusFirmus []string `json:"cantus_firmus"`
	Counterpoint []string `json:"counterpoint"`
	Species      int      `json:"species"`
	Mode         string   `json:"mode,omitempty"`
}

// CounterpointResult reports rule violations found by the Wes API.
type CounterpointResult struct {
	Valid     bool                 `json:"valid"`
	Errors    []notation.Violation `json:"errors,omitempty"`
	Intervals []string             `json:"intervals,omitempty"`
	Upstream  string               `json:"upstream,omitempty"`
}

// Pattern describes a line-building pattern the Wes API knows.
type Pattern struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
