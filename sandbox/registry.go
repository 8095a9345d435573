package sandbox

import (
	"context"
	"strings"
)

// Entry is one candidate backend in the ordered preference list.
type Entry struct {
	Sandbox Sandbox
	Enabled bool
}

// Registry holds the administratively configured backends in preference
// order. Selection is deterministic: the first enabled backend that
// supports the requested language wins. The registry is built once from
// configuration and passed in; there is no process-wide state.
type Registry struct {
	entries []Entry
}

func NewRegistry(entries ...Entry) *Registry {
	return &Registry{entries: entries}
}

func (r *Registry) enabled() []Sandbox {
	var out []Sandbox
	for _, e := range r.entries {
		if e.Enabled {
			out = append(out, e.Sandbox)
		}
	}
	return out
}

// BestFor returns the first enabled backend supporting the language.
// With a single enabled backend the language query is skipped: the most
// common deployment is one Jobe server, and a wrong language will fail
// the run with a clear message anyway.
func (r *Registry) BestFor(ctx context.Context, language string) (Sandbox, error) {
	enabled := r.enabled()
	if len(enabled) == 0 {
		return nil, ErrNoSandboxAvailable()
	}
	if len(enabled) == 1 {
		return enabled[0], nil
	}
	for _, sb := range enabled {
		langs, err := sb.Languages(ctx)
		if err != nil {
			continue // backend down; try the next one
		}
		for _, lang := range langs {
			if strings.EqualFold(lang, language) {
				return sb, nil
			}
		}
	}
	return nil, ErrNoSandboxForLanguage(language)
}

// Languages returns the union of languages over enabled backends.
func (r *Registry) Languages(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, sb := range r.enabled() {
		langs, err := sb.Languages(ctx)
		if err != nil {
			continue
		}
		for _, lang := range langs {
			key := strings.ToLower(lang)
			if !seen[key] {
				seen[key] = true
				out = append(out, lang)
			}
		}
	}
	if len(out) == 0 {
		return nil, ErrNoSandboxAvailable()
	}
	return out, nil
}

// Close shuts down every registered backend.
func (r *Registry) Close() error {
	var firstErr error
	for _, e := range r.entries {
		if err := e.Sandbox.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
