package dependency

import (
	"strings"

	"github.com/ralt/debcube/internal/models"
	"github.com/sirupsen/logrus"
)

// RelationFields are the control fields whose relations make up the dependency closure
var RelationFields = []string{"Depends", "Pre-Depends", "Recommends"}

// ParseGroup parses a relation string. Commas separate required clauses, pipes
// separate alternatives within a clause. Malformed clauses are dropped.
func ParseGroup(depString string) models.DependencyItemGroup {
	var group models.DependencyItemGroup

	for _, clause := range strings.Split(strings.TrimSpace(depString), ",") {
		if strings.Contains(clause, "|") {
			var alternatives []models.DependencyItem
			for _, alt := range strings.Split(clause, "|") {
				if item, ok := ParseItem(alt); ok {
					alternatives = append(alternatives, item)
				}
			}
			group.Or = append(group.Or, alternatives)
			continue
		}

		if strings.TrimSpace(clause) == "" {
			continue
		}
		if item, ok := ParseItem(clause); ok {
			group.And = append(group.And, item)
		}
	}

	return group
}

// ParseItem parses "name" or "name (op version)". A parenthesized group must hold
// exactly an operator and a version, anything else is rejected.
func ParseItem(s string) (models.DependencyItem, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.DependencyItem{}, false
	}

	if !strings.Contains(s, "(") {
		return models.DependencyItem{Name: stripArchQualifier(s)}, true
	}

	s = strings.Replace(strings.Replace(s, "(", " ", 1), ")", " ", 1)
	fields := strings.Fields(s)
	if len(fields) != 3 {
		logrus.Debugf("Dropping malformed dependency clause %q", s)
		return models.DependencyItem{}, false
	}

	return models.DependencyItem{
		Name:     stripArchQualifier(fields[0]),
		Operator: fields[1],
		Version:  fields[2],
	}, true
}

// stripArchQualifier removes multiarch suffixes such as ":any"
func stripArchQualifier(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.Index(name, ":"); i > 0 {
		return name[:i]
	}
	return name
}

// relationString joins the relation fields of a package with commas
func relationString(info map[string]string) string {
	var parts []string
	for _, field := range RelationFields {
		if v := strings.TrimSpace(info[field]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ",")
}
