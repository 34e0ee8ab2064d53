package middleware

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"github.com/aretw0/ngena/pkg/ports"
)

// DefaultPIIPatterns match the registration fields kept in session data.
var DefaultPIIPatterns = []string{"email", "first_name", "last_name", "phone", "paying_phone_number", "payee"}

// Mask is the replacement written over PII values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.KVStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a read-side middleware that masks JSON values of keys
// matching the patterns. Writes pass through untouched, so the wrapped store is meant
// for inspection surfaces (CLI, MCP) rather than the dispatcher.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.KVStore) ports.KVStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := m.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return raw, nil
	}
	masked, err := json.Marshal(maskValue(doc, m.patterns))
	if err != nil {
		return raw, nil
	}
	return masked, nil
}

func (m *piiMiddleware) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.next.Set(ctx, key, value, ttl)
}

func (m *piiMiddleware) Delete(ctx context.Context, keys ...string) error {
	return m.next.Delete(ctx, keys...)
}

// Helpers

func maskValue(v any, patterns []*regexp.Regexp) any {
	switch val := v.(type) {
	case map[string]any:
		for k, sub := range val {
			if matchesAny(k, patterns) {
				val[k] = Mask
				continue
			}
			val[k] = maskValue(sub, patterns)
		}
		return val
	case []any:
		for i, sub := range val {
			val[i] = maskValue(sub, patterns)
		}
		return val
	default:
		return v
	}
}

func matchesAny(k string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(k) {
			return true
		}
	}
	return false
}
