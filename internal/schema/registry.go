package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds segment schemas and transaction maps partitioned by version.
//
// It is populated at startup and then read by every decode. Lookups return an
// absence signal rather than an error so callers can apply their own fallback
// or skip policy.
type Registry struct {
	mu           sync.RWMutex
	segments     map[string]map[string]*Segment
	transactions map[string]map[string]*TransactionMap
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		segments:     make(map[string]map[string]*Segment),
		transactions: make(map[string]map[string]*TransactionMap),
	}
}

// RegisterSegment adds or replaces the schema for (seg.Version, seg.ID).
// Later registrations win, which lets workbooks override builtin layouts.
func (r *Registry) RegisterSegment(seg *Segment) error {
	if seg == nil || seg.ID == "" || seg.Version == "" {
		return fmt.Errorf("segment schema needs an id and a version")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	byID, ok := r.segments[seg.Version]
	if !ok {
		byID = make(map[string]*Segment)
		r.segments[seg.Version] = byID
	}
	byID[seg.ID] = seg
	return nil
}

// RegisterTransaction adds or replaces the map for (m.Version, m.Code).
func (r *Registry) RegisterTransaction(m *TransactionMap) error {
	if m == nil {
		return fmt.Errorf("nil transaction map")
	}
	if err := m.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	byCode, ok := r.transactions[m.Version]
	if !ok {
		byCode = make(map[string]*TransactionMap)
		r.transactions[m.Version] = byCode
	}
	byCode[m.Code] = m
	return nil
}

// LookupSegment returns the schema for a segment in a version.
func (r *Registry) LookupSegment(version, segmentID string) (*Segment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seg, ok := r.segments[version][segmentID]
	return seg, ok
}

// LookupTransaction returns the map for a transaction code in a version.
func (r *Registry) LookupTransaction(version, code string) (*TransactionMap, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.transactions[version][code]
	return m, ok
}

// Versions lists every version that has at least one segment or map, sorted.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	for v := range r.segments {
		seen[v] = true
	}
	for v := range r.transactions {
		seen[v] = true
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Segments lists the segment ids registered for a version, sorted.
func (r *Registry) Segments(version string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.segments[version]))
	for id := range r.segments[version] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Transactions lists the transaction codes registered for a version, sorted.
func (r *Registry) Transactions(version string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.transactions[version]))
	for code := range r.transactions[version] {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
