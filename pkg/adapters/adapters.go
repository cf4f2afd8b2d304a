// Package adapters maps application platforms to fill hints. An adapter
// carries host patterns, platform-specific selectors and navigation
// texts; the engine falls back to generic behavior for anything an
// adapter leaves unset.
package adapters

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"

	"github.com/entrhq/autoapply/pkg/autofill"
	"github.com/entrhq/autoapply/pkg/dom"
	"github.com/entrhq/autoapply/pkg/profile"
	"github.com/entrhq/autoapply/pkg/resume"
)

// Adapter describes one application platform.
type Adapter struct {
	Name string

	// HostPatterns are glob patterns matched against the posting URL's
	// hostname, e.g. "*.greenhouse.io".
	HostPatterns []string

	// DetectForm reports whether the platform's application form is
	// present in the document. Nil means no detection.
	DetectForm func(dom.Document) bool

	// FieldMap builds the explicit descriptor list for a profile. Nil
	// falls back to the profile's generic descriptors.
	FieldMap func(*profile.Profile) []autofill.FieldDescriptor

	// ResumeInputHints are selectors tried before the generic file
	// input lookup.
	ResumeInputHints []string

	// Steps overrides the engine's navigation hints.
	Steps *autofill.StepConfig
}

// Registry resolves posting URLs to adapters.
type Registry struct {
	entries  []entry
	fallback Adapter
}

type entry struct {
	adapter  Adapter
	patterns []glob.Glob
}

// NewRegistry creates a registry pre-populated with the built-in
// platform adapters and the generic fallback.
func NewRegistry() *Registry {
	r := &Registry{fallback: Generic()}
	for _, a := range builtins() {
		// Built-in patterns are static and known to compile.
		if err := r.Register(a); err != nil {
			panic(fmt.Sprintf("adapters: built-in %q: %v", a.Name, err))
		}
	}
	return r
}

// Register adds an adapter. Its host patterns are compiled up front so
// lookups never fail.
func (r *Registry) Register(a Adapter) error {
	e := entry{adapter: a}
	for _, pattern := range a.HostPatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid host pattern %q: %w", pattern, err)
		}
		e.patterns = append(e.patterns, g)
	}
	r.entries = append(r.entries, e)
	return nil
}

// Lookup returns the first adapter whose host patterns match the URL's
// hostname, or the generic fallback. Registration order decides ties.
func (r *Registry) Lookup(rawURL string) Adapter {
	u, err := url.Parse(rawURL)
	if err != nil {
		return r.fallback
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return r.fallback
	}

	for _, e := range r.entries {
		for _, pattern := range e.patterns {
			if pattern.Match(host) {
				return e.adapter
			}
		}
	}
	return r.fallback
}

// ByName returns a registered adapter by name. "generic" resolves to
// the fallback.
func (r *Registry) ByName(name string) (Adapter, bool) {
	if name == r.fallback.Name {
		return r.fallback, true
	}
	for _, e := range r.entries {
		if e.adapter.Name == name {
			return e.adapter, true
		}
	}
	return Adapter{}, false
}

// Generic is the fallback adapter: no platform hints, profile-derived
// descriptors, engine defaults for navigation.
func Generic() Adapter {
	return Adapter{Name: "generic"}
}

// BuildPlan assembles the orchestrator's plan from an adapter, a
// profile, and an optional resume.
func BuildPlan(a Adapter, prof *profile.Profile, cv *resume.File) autofill.Plan {
	plan := autofill.Plan{
		Rules:       prof.Rules(),
		ResumeHints: a.ResumeInputHints,
	}
	if a.FieldMap != nil {
		plan.Descriptors = a.FieldMap(prof)
	} else {
		plan.Descriptors = prof.Descriptors()
	}
	if a.Steps != nil {
		plan.Steps = *a.Steps
	}
	if cv != nil {
		up := cv.Upload()
		plan.Resume = &up
	}
	return plan
}
