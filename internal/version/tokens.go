package version

import "strings"

type tokenClass int

const (
	classAlpha tokenClass = iota // letters and the padding space
	classDigit
	classTilde
	classOther
)

func classOf(c byte) tokenClass {
	switch {
	case c >= '0' && c <= '9':
		return classDigit
	case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == ' ':
		return classAlpha
	case c == '~':
		return classTilde
	default:
		return classOther
	}
}

// tokenOrder ranks characters of different classes against each other
func tokenOrder(c byte) int {
	switch classOf(c) {
	case classTilde:
		return -1
	case classDigit:
		return 0
	case classAlpha:
		return int(c)
	default:
		return int(c) + 256
	}
}

// compareStrings compares upstream or revision strings run by run
func compareStrings(s1, s2 string) int {
	if n := len(s2) - len(s1); n > 0 {
		s1 += strings.Repeat(" ", n)
	} else if n < 0 {
		s2 += strings.Repeat(" ", -n)
	}

	n := len(s1)
	i1, i2 := 0, 0
	for i1 < n && i2 < n {
		c1, c2 := classOf(s1[i1]), classOf(s2[i2])
		if c1 != c2 {
			if tokenOrder(s1[i1]) > tokenOrder(s2[i2]) {
				return 1
			}
			return -1
		}

		r1 := run(s1, i1, c1)
		r2 := run(s2, i2, c2)
		i1 += len(r1)
		i2 += len(r2)

		if r := compareRun(c1, r1, r2); r != 0 {
			return r
		}
	}

	// Runs of different length can leave text on one side only
	if r := remainder(s1[i1:]); r != 0 {
		return r
	}
	return -remainder(s2[i2:])
}

func run(s string, start int, class tokenClass) string {
	end := start
	for end < len(s) && classOf(s[end]) == class {
		end++
	}
	return s[start:end]
}

func compareRun(class tokenClass, r1, r2 string) int {
	if class == classDigit {
		if len(r1) != len(r2) {
			return compareNumeric(r1, r2)
		}
		return strings.Compare(r1, r2)
	}
	if class == classAlpha {
		r1 = strings.TrimRight(r1, " ")
		r2 = strings.TrimRight(r2, " ")
	}
	return strings.Compare(r1, r2)
}

// compareNumeric compares digit runs as integers of arbitrary size
func compareNumeric(r1, r2 string) int {
	r1 = strings.TrimLeft(r1, "0")
	r2 = strings.TrimLeft(r2, "0")
	if len(r1) != len(r2) {
		return compareInt(len(r1), len(r2))
	}
	return strings.Compare(r1, r2)
}

func compareInt(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func remainder(rest string) int {
	rest = strings.TrimRight(rest, " ")
	switch {
	case rest == "":
		return 0
	case rest[0] == '~':
		return -1
	default:
		return 1
	}
}
