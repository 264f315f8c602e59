package schema

import "fmt"

// DefaultFallbackVersion is used when a requested version has no definition.
const DefaultFallbackVersion = "004010"

// NotFoundError reports a definition missing from both the requested and the
// fallback version.
type NotFoundError struct {
	Kind     string // "segment" or "transaction"
	Name     string
	Version  string
	Fallback string
}

func (e *NotFoundError) Error() string {
	if e.Fallback == "" || e.Fallback == e.Version {
		return fmt.Sprintf("no %s schema for %s in version %q", e.Kind, e.Name, e.Version)
	}
	return fmt.Sprintf("no %s schema for %s in version %q or fallback %q", e.Kind, e.Name, e.Version, e.Fallback)
}

// Resolver looks definitions up with a single level of version fallback.
type Resolver struct {
	registry *Registry
	fallback string
}

// NewResolver wraps a registry. An empty fallback selects
// DefaultFallbackVersion.
func NewResolver(registry *Registry, fallback string) *Resolver {
	if fallback == "" {
		fallback = DefaultFallbackVersion
	}
	return &Resolver{registry: registry, fallback: fallback}
}

// Fallback returns the configured fallback version.
func (r *Resolver) Fallback() string { return r.fallback }

// ResolveSegment returns the schema for name in version, retrying once with
// the fallback version. The fallback lookup never falls back again.
func (r *Resolver) ResolveSegment(name, version string) (*Segment, error) {
	if seg, ok := r.registry.LookupSegment(version, name); ok {
		return seg, nil
	}
	if version != r.fallback {
		if seg, ok := r.registry.LookupSegment(r.fallback, name); ok {
			return seg, nil
		}
	}
	return nil, &NotFoundError{Kind: "segment", Name: name, Version: version, Fallback: r.fallback}
}

// ResolveTransaction returns the map for a transaction code using the same
// single fallback. The boolean is the absence signal.
func (r *Resolver) ResolveTransaction(version, code string) (*TransactionMap, bool) {
	if m, ok := r.registry.LookupTransaction(version, code); ok {
		return m, true
	}
	if version != r.fallback {
		return r.registry.LookupTransaction(r.fallback, code)
	}
	return nil, false
}
