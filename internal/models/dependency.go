package models

import "fmt"

// DependencyItem is a single relation such as "libc6 (>= 2.34)"
type DependencyItem struct {
	Name     string
	Operator string
	Version  string
}

// String renders the item the way it appears in a control file
func (d DependencyItem) String() string {
	if d.Version == "" {
		return d.Name
	}
	return fmt.Sprintf("%s (%s %s)", d.Name, d.Operator, d.Version)
}

// DependencyItemGroup holds the parsed form of a relation field.
// Every item of And is required; each entry of Or requires one of its alternatives.
type DependencyItemGroup struct {
	And []DependencyItem
	Or  [][]DependencyItem
}
