package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/adjuster/pkg/domain"
	"github.com/aretw0/adjuster/pkg/ports"
)

type piiMiddleware struct {
	next     ports.SnapshotPublisher
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks transcript payload params
// whose keys match the patterns before the snapshot leaves the process.
// The typed report and result fields stay intact; masking covers the
// free-form negotiation params where claim details travel.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SnapshotPublisher) ports.SnapshotPublisher {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Publish(ctx context.Context, session domain.Session) error {
	// Deep clone the params maps to avoid side effects on the in-memory
	// session the workflow keeps using.
	cloned := session.Clone()
	for i, entry := range cloned.Transcript {
		if len(entry.Payload.Params) == 0 {
			continue
		}
		params := deepCopyMap(entry.Payload.Params)
		maskMap(params, m.patterns)
		cloned.Transcript[i].Payload.Params = params
	}

	return m.next.Publish(ctx, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context) (*domain.Session, error) {
	return m.next.Load(ctx)
}

func (m *piiMiddleware) Clear(ctx context.Context) error {
	return m.next.Clear(ctx)
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		// Handle nested maps
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v // shallow copy of value
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		// Check key against patterns
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = "***"
				break
			}
		}

		// Recurse if map
		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
