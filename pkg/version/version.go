// Package version orders the free-form version strings reported by clients.
//
// Strings of the form MAJOR.MINOR.PATCH[suffix] compare numerically; a
// release outranks any suffixed build of the same triple. Anything else
// (branch names, tags) sorts below every parseable version.
package version

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var pattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(.*)$`)

// Unparsed is the component value used for strings that do not match the pattern.
const Unparsed = -1

type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
	Original   string
}

// Parse never fails; non-matching input yields Unparsed components and the
// original string as the prerelease.
func Parse(v string) Version {
	m := pattern.FindStringSubmatch(v)
	if m == nil {
		return Version{
			Major:      Unparsed,
			Minor:      Unparsed,
			Patch:      Unparsed,
			Prerelease: v,
			Original:   v,
		}
	}
	return Version{
		Major:      atoi(m[1]),
		Minor:      atoi(m[2]),
		Patch:      atoi(m[3]),
		Prerelease: m[4],
		Original:   v,
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		// digits that overflow int still order above every sane version
		return int(^uint(0) >> 1)
	}
	return n
}

// Compare returns a negative number when a < b, zero when equal and a
// positive number when a > b.
func Compare(a, b string) int {
	return compareParsed(Parse(a), Parse(b))
}

func compareParsed(a, b Version) int {
	if c := cmpInt(a.Major, b.Major); c != 0 {
		return c
	}
	if c := cmpInt(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := cmpInt(a.Patch, b.Patch); c != 0 {
		return c
	}

	switch {
	case a.Prerelease == "" && b.Prerelease == "":
		return 0
	case a.Prerelease == "":
		return 1
	case b.Prerelease == "":
		return -1
	default:
		return strings.Compare(a.Prerelease, b.Prerelease)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// FindLatest returns the greatest version. Ties keep the first occurrence.
func FindLatest(versions []string) (string, bool) {
	if len(versions) == 0 {
		return "", false
	}
	latest := versions[0]
	latestParsed := Parse(latest)
	for _, v := range versions[1:] {
		parsed := Parse(v)
		if compareParsed(parsed, latestParsed) > 0 {
			latest = v
			latestParsed = parsed
		}
	}
	return latest, true
}

// SortDescending returns a new slice ordered greatest first.
func SortDescending(versions []string) []string {
	parsed := make([]Version, len(versions))
	for i, v := range versions {
		parsed[i] = Parse(v)
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		return compareParsed(parsed[i], parsed[j]) > 0
	})

	out := make([]string, len(parsed))
	for i, v := range parsed {
		out[i] = v.Original
	}
	return out
}
