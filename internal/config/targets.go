package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/pagecheck/internal/domain"
)

const DefaultBaseURL = "http://localhost:3000"

// DefaultTargets are the home page and the workspace, each led by the
// branding marker.
func DefaultTargets(baseURL string) []domain.CheckTarget {
	base := strings.TrimRight(baseURL, "/")
	branding := domain.Fragment{Text: "ValueVerse", Label: "Main branding"}
	return []domain.CheckTarget{
		{
			URL: base + "/",
			Fragments: []domain.Fragment{
				branding,
				{Text: "Get Started", Label: "Call to action"},
			},
		},
		{
			URL: base + "/workspace",
			Fragments: []domain.Fragment{
				branding,
				{Text: "AI Assistant", Label: "Left panel chat"},
				{Text: "Value Canvas", Label: "Right panel"},
			},
		},
	}
}

type targetsFile struct {
	Targets []struct {
		Path      string            `yaml:"path"`
		URL       string            `yaml:"url"`
		Fragments []domain.Fragment `yaml:"fragments"`
	} `yaml:"targets"`
}

// LoadTargets reads a YAML targets file. Entries give either a full url or a
// path joined onto baseURL.
//
//	targets:
//	  - path: /
//	    fragments:
//	      - {text: ValueVerse, label: Main branding}
func LoadTargets(path, baseURL string) ([]domain.CheckTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	var tf targetsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse targets file: %w", err)
	}
	if len(tf.Targets) == 0 {
		return nil, errors.New("targets file lists no targets")
	}

	base := strings.TrimRight(baseURL, "/")
	out := make([]domain.CheckTarget, 0, len(tf.Targets))
	for i, t := range tf.Targets {
		u := t.URL
		if u == "" {
			p := t.Path
			if !strings.HasPrefix(p, "/") {
				p = "/" + p
			}
			u = base + p
		}
		ct := domain.CheckTarget{URL: u, Fragments: t.Fragments}
		if err := validate.Struct(ct); err != nil {
			return nil, fmt.Errorf("target %d (%s): %w", i, u, err)
		}
		out = append(out, ct)
	}
	return out, nil
}
