// Package sources turns apt sources lists and preferences into an ordered list of
// index sources with their pin priorities.
package sources

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/ralt/debcube/internal/models"
	"github.com/sirupsen/logrus"
)

// Options configures a Resolver
type Options struct {
	// Arch is the dpkg architecture, e.g. "amd64"
	Arch string
}

// Resolver collects sources and constraints and decides the scan order
type Resolver struct {
	opts Options

	Sources     []*models.Source
	Constraints []*models.Constraint

	links map[string]bool
}

// NewResolver creates a resolver for the given options
func NewResolver(opts Options) *Resolver {
	if opts.Arch == "" {
		opts.Arch = DefaultArch
	}
	return &Resolver{
		opts:  opts,
		links: make(map[string]bool),
	}
}

// Scan loads the given sources lists and preference files, assigns priorities and
// sorts the sources into scan order.
func (r *Resolver) Scan(listFiles, prefFiles []string) ([]*models.Source, error) {
	if err := r.LoadSourceLists(listFiles); err != nil {
		return nil, err
	}
	if err := r.LoadPreferences(prefFiles); err != nil {
		return nil, err
	}
	r.AssignPriorities()
	r.Sort()
	return r.Sources, nil
}

// LoadSourceLists parses each file in order. Sources whose index location was
// already seen are skipped.
func (r *Resolver) LoadSourceLists(files []string) error {
	for i, file := range files {
		logrus.Infof("[%d/%d] Reading %s", i+1, len(files), file)

		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open sources list: %w", err)
		}
		parsed, err := ParseSourceList(f, file, r.opts.Arch)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", file, err)
		}

		r.AddSources(parsed...)
	}
	return nil
}

// AddSources appends sources, dropping duplicate index locations
func (r *Resolver) AddSources(sources ...*models.Source) {
	for _, s := range sources {
		if r.links[s.Link] {
			logrus.Debugf("Skipping duplicate source %s", s.Link)
			continue
		}
		r.links[s.Link] = true
		r.Sources = append(r.Sources, s)
	}
}

// LoadPreferences parses each preferences file in order
func (r *Resolver) LoadPreferences(files []string) error {
	for _, file := range files {
		logrus.Infof("Reading %s", file)

		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open preferences: %w", err)
		}
		constraints, err := ParsePreferences(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", file, err)
		}

		r.Constraints = append(r.Constraints, constraints...)
	}
	return nil
}

// AssignPriorities attaches every constraint to every source it matches. When several
// constraints match the same source the last one in preference order wins.
func (r *Resolver) AssignPriorities() {
	for _, c := range r.Constraints {
		for _, s := range r.Sources {
			if !Matches(c, s) {
				continue
			}
			s.Constraint = c
			s.Priority = c.Priority
		}
	}
}

// Sort orders sources by ascending priority, keeping list order on ties
func (r *Resolver) Sort() {
	sort.SliceStable(r.Sources, func(i, j int) bool {
		return r.Sources[i].Priority < r.Sources[j].Priority
	})
}

// Matches reports whether every pin field set on c matches s
func Matches(c *models.Constraint, s *models.Source) bool {
	if c.PinRelease != "" && s.Release != c.PinRelease {
		return false
	}
	if c.PinOrigin != "" && !matchesOrigin(s, c.PinOrigin) {
		return false
	}
	if c.PinOriginURL != "" && !matchesOrigin(s, c.PinOriginURL) {
		return false
	}
	if c.PinComponent != "" && s.Component != c.PinComponent {
		return false
	}
	return true
}

func matchesOrigin(s *models.Source, origin string) bool {
	return strings.EqualFold(s.Origin, origin) || s.OriginURL == origin
}

// IsForcedByConstraint reports whether c pins the package record name/version.
// Package patterns are "*", an exact name, a glob or a /regex/. A version pin also
// requires the record version to match.
func IsForcedByConstraint(c *models.Constraint, name, version string) bool {
	if c == nil {
		return false
	}
	if c.PinVersion != "" && !matchesPattern(c.PinVersion, version) {
		return false
	}
	for _, pattern := range c.Packages {
		if matchesPattern(pattern, name) {
			return true
		}
	}
	return false
}

func matchesPattern(pattern, s string) bool {
	switch {
	case pattern == "*":
		return true
	case len(pattern) > 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/"):
		re, err := regexp.Compile(pattern[1 : len(pattern)-1])
		if err != nil {
			logrus.Warnf("Invalid pin pattern %s: %v", pattern, err)
			return false
		}
		return re.MatchString(s)
	case strings.ContainsAny(pattern, "*?["):
		ok, err := path.Match(pattern, s)
		return err == nil && ok
	default:
		return pattern == s
	}
}
