package health

import (
	"context"
	"fmt"
	"time"
)

// Checker represents a dependency health check.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Report lists every dependency with "ok" or the error text.
type Report struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

// ReadinessUseCase describes readiness verification.
type ReadinessUseCase interface {
	Ready(ctx context.Context) (Report, error)
}

type service struct {
	checkers []Checker
	timeout  time.Duration
}

// NewService aggregates dependency checkers; nil checkers are skipped.
func NewService(checkers ...Checker) ReadinessUseCase {
	var kept []Checker
	for _, c := range checkers {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return &service{checkers: kept, timeout: 2 * time.Second}
}

// Ready runs all checks and returns the first failure as error.
func (s *service) Ready(ctx context.Context) (Report, error) {
	rep := Report{Status: "ok", Dependencies: make(map[string]string, len(s.checkers))}
	var first error
	for _, ch := range s.checkers {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := ch.Check(cctx)
		cancel()
		if err != nil {
			rep.Status = "unavailable"
			rep.Dependencies[ch.Name()] = err.Error()
			if first == nil {
				first = fmt.Errorf("%s: %w", ch.Name(), err)
			}
			continue
		}
		rep.Dependencies[ch.Name()] = "ok"
	}
	return rep, first
}
