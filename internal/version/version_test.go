package version

import (
	"errors"
	"testing"

	"github.com/ralt/debcube/internal/models"
)

func TestCompareOrdering(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0~1", "1.0", -1},
		{"1.0", "1.0+1", -1},
		{"1.0~1", "1.0+1", -1},
		{"2:1.0", "1:5.0", 1},
		{"1.0-2", "1.0-1", 1},
		{"1.10", "1.9", 1},
		{"1.0a", "1.0", 1},
		{"1.0a", "1.0.1", -1},
		{"1.0", "1.0-0", -1},
		{"0:1.0", "1.0", 0},
		{"1.2.3-1ubuntu1", "1.2.3-1", 1},
		{"2.36-0ubuntu4", "2.35-0ubuntu3", 1},
		{"1.0~rc1", "1.0~beta1", 1},
		{"1.0~~", "1.0~", 1},
		{"1.0~~a", "1.0~b", 1},
		{"010", "10", 0},
		{"1a", "01", 1},
		{"99999999999999999999", "99999999999999999998", 1},
	}

	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := Compare(tt.b, tt.a); got != -tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
		}
	}
}

func TestCompareReflexive(t *testing.T) {
	versions := []string{
		"1.0", "1:2.3.4-5", "1.0~rc1", "2.0+dfsg-1", "7.88.1-10+deb12u5",
		"1.2.3~alpha.4+b1", "0.0", "a", "1.0-1-1",
	}

	for _, v := range versions {
		if got := Compare(v, v); got != 0 {
			t.Errorf("Compare(%q, %q) = %d, want 0", v, v, got)
		}
	}
}

func TestCompareMissingIsEqual(t *testing.T) {
	if got := Compare("", "1.0"); got != 0 {
		t.Errorf("Compare with empty v1 = %d, want 0", got)
	}
	if got := Compare("1.0", "  "); got != 0 {
		t.Errorf("Compare with blank v2 = %d, want 0", got)
	}
}

func TestParse(t *testing.T) {
	v, err := Parse("3:1.2-3-4")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if v.Epoch != 3 || v.Upstream != "1.2-3" || v.Revision != "4" || !v.HasRevision {
		t.Errorf("unexpected parse result: %+v", v)
	}

	v, err = Parse("1.0")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if v.Epoch != 0 || v.Upstream != "1.0" || v.HasRevision {
		t.Errorf("unexpected parse result: %+v", v)
	}
}

func TestParseInvalidEpoch(t *testing.T) {
	for _, in := range []string{"11:1.0", "-1:1.0", "x:1.0"} {
		v, err := Parse(in)
		if !errors.Is(err, ErrInvalidEpoch) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidEpoch", in, err)
		}
		if v.Epoch != 0 || v.Upstream != "1.0" {
			t.Errorf("Parse(%q) = %+v, want epoch-less 1.0", in, v)
		}
	}

	// the out of range epoch is ignored rather than dominating
	if got := Compare("11:1.0", "1:0.5"); got != -1 {
		t.Errorf("Compare with invalid epoch = %d, want -1", got)
	}
}

func TestCompareByEqualityString(t *testing.T) {
	tests := []struct {
		v1, v2, op string
		want       bool
	}{
		{"1.0", "1.0", "=", true},
		{"1.0", "2.0", "", true},
		{"9.0", "2.0", "", true},
		{"2.0", "1.0", ">>", true},
		{"1.0", "1.0", ">>", false},
		{"1.0", "2.0", "<<", true},
		{"1.0", "1.0", ">=", true},
		{"0.9", "1.0", ">=", false},
		{"1.0", "1.0", "<=", true},
		{"1.1", "1.0", "<=", false},
		{"1.0", "1.0", ">", true},
		{"1.0", "1.0", "<", true},
		{"1.0", "1.0", "!=", false},
	}

	for _, tt := range tests {
		if got := CompareByEqualityString(tt.v1, tt.v2, tt.op); got != tt.want {
			t.Errorf("CompareByEqualityString(%q, %q, %q) = %v, want %v", tt.v1, tt.v2, tt.op, got, tt.want)
		}
	}
}

func TestSatisfies(t *testing.T) {
	item := models.DependencyItem{Name: "libc6", Operator: ">=", Version: "2.34"}
	if !Satisfies("2.35-0ubuntu3", item) {
		t.Error("2.35-0ubuntu3 should satisfy libc6 (>= 2.34)")
	}
	if Satisfies("2.31-0ubuntu9", item) {
		t.Error("2.31-0ubuntu9 should not satisfy libc6 (>= 2.34)")
	}
	if !Satisfies("0.1", models.DependencyItem{Name: "any"}) {
		t.Error("an unversioned item should always be satisfied")
	}
}
