package vision

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/aretw0/adjuster/pkg/domain"
)

// Simulated is an Analyzer that answers from a fixed profile set instead of
// calling a real gateway. The profile is picked deterministically from the
// evidence bytes, so the same submission always yields the same assessment.
type Simulated struct {
	profiles []Profile
	fixed    string
	latency  time.Duration
}

// SimulatedOption defines a functional option for configuring Simulated.
type SimulatedOption func(*Simulated)

// WithProfiles replaces the built-in profile set.
func WithProfiles(profiles []Profile) SimulatedOption {
	return func(s *Simulated) {
		s.profiles = profiles
	}
}

// WithFixedProfile pins every analysis to the named profile instead of
// hashing the evidence. Unknown names surface as analysis failures.
func WithFixedProfile(name string) SimulatedOption {
	return func(s *Simulated) {
		s.fixed = name
	}
}

// WithLatency makes each analysis take the given time, so interactive hosts
// visibly dwell in the analyzing step.
func WithLatency(latency time.Duration) SimulatedOption {
	return func(s *Simulated) {
		s.latency = latency
	}
}

// NewSimulated creates a simulated analyzer with the built-in profiles.
func NewSimulated(opts ...SimulatedOption) *Simulated {
	s := &Simulated{profiles: builtinProfiles()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProfileNames lists the available profiles in order.
func (s *Simulated) ProfileNames() []string {
	names := make([]string, len(s.profiles))
	for i, p := range s.profiles {
		names[i] = p.Name
	}
	return names
}

// Analyze picks a profile and renders its report, honoring the configured
// latency and context cancellation.
func (s *Simulated) Analyze(ctx context.Context, evidence domain.Evidence) (*domain.DamageReport, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	profile, err := s.pick(evidence)
	if err != nil {
		return nil, err
	}
	if profile.Failure != "" {
		return nil, domain.NewAnalysisError(profile.Failure, nil)
	}
	return profile.report()
}

func (s *Simulated) pick(evidence domain.Evidence) (Profile, error) {
	if len(s.profiles) == 0 {
		return Profile{}, domain.NewAnalysisError("no simulation profiles configured", nil)
	}

	if s.fixed != "" {
		for _, p := range s.profiles {
			if p.Name == s.fixed {
				return p, nil
			}
		}
		return Profile{}, domain.NewAnalysisError(fmt.Sprintf("unknown simulation profile %q", s.fixed), nil)
	}

	h := fnv.New32a()
	h.Write(evidence.Data)
	return s.profiles[int(h.Sum32())%len(s.profiles)], nil
}
