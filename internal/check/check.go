// Package check evaluates fetched page bodies against expected fragments.
// Everything here is a pure function of its inputs.
package check

import (
	"regexp"
	"strings"

	"github.com/hamed0406/pagecheck/internal/domain"
)

// ModuleNotFoundMarker is the bundler's error text for an unresolved import.
const ModuleNotFoundMarker = "Module not found"

var moduleNotFoundRe = regexp.MustCompile(`Module not found: Can't resolve '([^']+)'`)

// Fragments tests literal, case-sensitive containment of every fragment in
// body. The result has one entry per fragment, in input order.
func Fragments(body string, fragments []domain.Fragment) []domain.FragmentCheckResult {
	out := make([]domain.FragmentCheckResult, 0, len(fragments))
	for _, f := range fragments {
		out = append(out, domain.FragmentCheckResult{
			Label:    f.Label,
			Fragment: f.Text,
			Found:    strings.Contains(body, f.Text),
		})
	}
	return out
}

// MissingModule scans body for the "Module not found" marker and extracts
// the first unresolved module path. A marker without a parsable path
// yields Present=true with an empty Path.
func MissingModule(body string) domain.ModuleHint {
	if !strings.Contains(body, ModuleNotFoundMarker) {
		return domain.ModuleHint{}
	}
	m := moduleNotFoundRe.FindStringSubmatch(body)
	if m == nil {
		return domain.ModuleHint{Present: true}
	}
	return domain.ModuleHint{Present: true, Path: m[1]}
}

// Classify returns working only for a 200 response whose branding marker
// (the first fragment) was found.
func Classify(r domain.RunReport) domain.Verdict {
	if r.Failed() || r.Result == nil || r.Result.StatusCode != 200 {
		return domain.VerdictNeedsDebugging
	}
	// Checks follow the target's fragment order, so Checks[0] is the marker.
	if _, ok := r.Target.BrandingMarker(); !ok || len(r.Checks) == 0 || !r.Checks[0].Found {
		return domain.VerdictNeedsDebugging
	}
	return domain.VerdictWorking
}

// Evaluate fills Checks, MissingModule and Verdict from the fetch outcome.
// A failed fetch leaves Checks empty.
func Evaluate(r *domain.RunReport) {
	if r.Failed() || r.Result == nil {
		r.Checks = nil
		r.MissingModule = domain.ModuleHint{}
	} else {
		r.Checks = Fragments(r.Result.Body, r.Target.Fragments)
		r.MissingModule = MissingModule(r.Result.Body)
	}
	r.Verdict = Classify(*r)
}
