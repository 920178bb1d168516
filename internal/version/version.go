// Package version compares Debian package versions.
//
// The ordering follows dpkg closely but not exactly: versions are compared run by run
// after padding both strings with spaces, and epochs outside [0,10] are ignored.
package version

import (
	"errors"
	"strconv"
	"strings"

	"github.com/ralt/debcube/internal/models"
)

// MaxEpoch is the largest epoch accepted by Parse
const MaxEpoch = 10

// ErrInvalidEpoch is returned by Parse when the epoch is not an integer in [0, MaxEpoch]
var ErrInvalidEpoch = errors.New("invalid epoch")

// Version is a parsed epoch:upstream[-revision] string
type Version struct {
	Epoch       int
	Upstream    string
	Revision    string
	HasRevision bool
}

// Parse splits v into its components. On ErrInvalidEpoch the returned Version is still
// usable: the epoch is dropped and the text after the colon is parsed as if no epoch
// had been given.
func Parse(v string) (Version, error) {
	var ver Version
	var err error

	v = strings.TrimSpace(v)

	if epoch, rest, found := strings.Cut(v, ":"); found {
		n, convErr := strconv.Atoi(epoch)
		if convErr != nil || n < 0 || n > MaxEpoch {
			err = ErrInvalidEpoch
		} else {
			ver.Epoch = n
		}
		v = rest
	}

	if i := strings.LastIndex(v, "-"); i >= 0 {
		ver.Upstream = v[:i]
		ver.Revision = v[i+1:]
		ver.HasRevision = true
	} else {
		ver.Upstream = v
	}

	return ver, err
}

// Compare returns -1, 0 or 1 depending on whether v1 sorts before, equal to or after v2.
// An empty version on either side compares equal to anything.
func Compare(v1, v2 string) int {
	v1 = strings.TrimSpace(v1)
	v2 = strings.TrimSpace(v2)
	if v1 == "" || v2 == "" {
		return 0
	}

	a, _ := Parse(v1)
	b, _ := Parse(v2)

	if a.Epoch != b.Epoch {
		if a.Epoch > b.Epoch {
			return 1
		}
		return -1
	}

	if r := compareStrings(a.Upstream, b.Upstream); r != 0 {
		return r
	}

	switch {
	case !a.HasRevision && !b.HasRevision:
		return 0
	case !b.HasRevision:
		return 1
	case !a.HasRevision:
		return -1
	}
	return compareStrings(a.Revision, b.Revision)
}

// CompareByEqualityString evaluates "v1 op v2". An empty operator is always satisfied,
// an unknown operator never is. The deprecated "<" and ">" mean "<=" and ">=".
func CompareByEqualityString(v1, v2, op string) bool {
	op = strings.TrimSpace(op)
	if op == "" {
		return true
	}

	r := Compare(v1, v2)
	switch op {
	case "=":
		return r == 0
	case ">>":
		return r > 0
	case "<<":
		return r < 0
	case ">=", ">":
		return r >= 0
	case "<=", "<":
		return r <= 0
	default:
		return false
	}
}

// Satisfies reports whether v fulfils the version requirement of item
func Satisfies(v string, item models.DependencyItem) bool {
	return CompareByEqualityString(v, item.Version, item.Operator)
}
