package sources

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/ralt/debcube/internal/models"
	"github.com/sirupsen/logrus"
)

// ParsePreferences reads apt preferences stanzas. A stanza is kept only when it
// carries Package, Pin and a numeric Pin-Priority.
func ParsePreferences(r io.Reader) ([]*models.Constraint, error) {
	var constraints []*models.Constraint
	var pkg, pin, priority string

	flush := func() {
		if pkg != "" && pin != "" && priority != "" {
			p, err := strconv.Atoi(priority)
			if err != nil {
				logrus.Warnf("Ignoring pin for %q: invalid priority %q", pkg, priority)
			} else {
				constraints = append(constraints, NewConstraint(pkg, pin, p))
			}
		}
		pkg, pin, priority = "", "", ""
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "Package":
			pkg = value
		case "Pin":
			pin = value
		case "Pin-Priority":
			priority = value
		}
	}
	flush()

	return constraints, scanner.Err()
}

// NewConstraint builds a Constraint from the raw Package, Pin and Pin-Priority values
func NewConstraint(pkg, pin string, priority int) *models.Constraint {
	c := &models.Constraint{
		Packages: strings.Fields(pkg),
		Priority: priority,
	}

	key, value, found := strings.Cut(strings.TrimSpace(pin), " ")
	if !found {
		return c
	}
	value = strings.TrimSpace(value)

	switch key {
	case "release":
		for _, item := range strings.Split(value, ",") {
			k, v, ok := strings.Cut(item, "=")
			if !ok {
				continue
			}
			v = strings.Trim(strings.TrimSpace(v), "\"")

			switch strings.TrimSpace(k) {
			case "o":
				c.PinOrigin = strings.Replace(v, "LP-PPA", "ppa.launchpad.net", 1)
			case "a":
				c.PinRelease = v
			case "c":
				c.PinComponent = v
			case "n":
				logrus.Debugf("Pin codename n=%s is not applied", v)
			}
		}
	case "origin":
		c.PinOriginURL = strings.Trim(value, "\"")
	case "version":
		c.PinVersion = value
	}

	return c
}
