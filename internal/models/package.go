package models

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Status is the upgrade classification of a package
type Status int

const (
	// StatusAvailable means no decision has been made yet (not installed)
	StatusAvailable Status = iota
	StatusInstalled
	StatusUpgradable
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusInstalled:
		return "installed"
	case StatusUpgradable:
		return "upgradable"
	default:
		return "available"
	}
}

// ByteRange locates a record inside its index file as the half-open range [Start, End).
//
// Offsets are computed once while scanning. They stay valid only as long as the
// bytes of File in that range are not modified.
type ByteRange struct {
	File  string
	Start int64
	End   int64
}

// Len returns the number of bytes covered by the range
func (r ByteRange) Len() int64 {
	return r.End - r.Start
}

// Read opens the backing file, reads exactly the covered bytes and closes it again
func (r ByteRange) Read() ([]byte, error) {
	if r.End < r.Start {
		return nil, fmt.Errorf("invalid byte range %d-%d in %s", r.Start, r.End, r.File)
	}

	f, err := os.Open(r.File)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, r.Len())
	if _, err := f.ReadAt(buf, r.Start); err != nil {
		return nil, fmt.Errorf("failed to read %s at %d: %w", r.File, r.Start, err)
	}
	return buf, nil
}

// ReverseEdge records which upgradable package requires a dependency
type ReverseEdge struct {
	Requester string
	Item      DependencyItem
}

// Package is one entry of the catalog. Only Name and Version are held in memory,
// every other control field is read back from Range on demand.
type Package struct {
	Name             string
	Version          string
	InstalledVersion string
	Status           Status
	Range            ByteRange
	Section          string
	Forced           bool

	// ReverseDepends is keyed by the dependency name, one edge per name
	ReverseDepends map[string]ReverseEdge

	Source *Source
}

// Info reads the package record from disk and returns the first value found for each
// requested key. Keys that do not appear in the record are absent from the result.
// Continuation lines are not folded into values.
func (p *Package) Info(keys ...string) (map[string]string, error) {
	data, err := p.Range.Read()
	if err != nil {
		return nil, err
	}
	fields, err := lookupFields(data, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to read record of %s: %w", p.Name, err)
	}
	return fields, nil
}

// Field is a shortcut for a single-key Info lookup
func (p *Package) Field(key string) (string, error) {
	info, err := p.Info(key)
	if err != nil {
		return "", err
	}
	return info[key], nil
}

// Raw returns the record bytes exactly as they appear in the index file
func (p *Package) Raw() ([]byte, error) {
	return p.Range.Read()
}

func lookupFields(data []byte, keys []string) (map[string]string, error) {
	fields := make(map[string]string, len(keys))

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		for _, key := range keys {
			if _, found := fields[key]; found {
				continue
			}
			if strings.HasPrefix(line, key+":") {
				fields[key] = strings.TrimSpace(line[len(key)+1:])
			}
		}

		if len(fields) == len(keys) {
			return fields, nil
		}
	}

	return fields, scanner.Err()
}
