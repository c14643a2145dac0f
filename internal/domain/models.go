package domain

import (
	"time"
)

// Fragment is a literal substring expected in a page body.
type Fragment struct {
	Text  string `json:"text" yaml:"text" validate:"required"`
	Label string `json:"label" yaml:"label" validate:"required"`
}

// CheckTarget is one URL plus the fragments its body should contain.
// The first fragment is the branding marker used for the verdict.
type CheckTarget struct {
	URL       string     `json:"url" validate:"required,url"`
	Fragments []Fragment `json:"fragments" validate:"required,min=1,dive"`
}

// BrandingMarker returns the first fragment, or false when there is none.
func (t CheckTarget) BrandingMarker() (Fragment, bool) {
	if len(t.Fragments) == 0 {
		return Fragment{}, false
	}
	return t.Fragments[0], true
}

type FetchResult struct {
	StatusCode int           `json:"status_code"`
	Body       string        `json:"-"`
	Title      string        `json:"title,omitempty"`
	Latency    time.Duration `json:"latency_ns"`
}

type FragmentCheckResult struct {
	Label    string `json:"label"`
	Fragment string `json:"fragment"`
	Found    bool   `json:"found"`
}

// ModuleHint reports the bundler "Module not found" marker.
// Present with an empty Path means the module could not be extracted.
type ModuleHint struct {
	Present bool   `json:"present"`
	Path    string `json:"path,omitempty"`
}
