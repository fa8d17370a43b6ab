package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	v := Parse("1.20.1-beta")
	assert.Equal(t, Version{Major: 1, Minor: 20, Patch: 1, Prerelease: "-beta", Original: "1.20.1-beta"}, v)

	branch := Parse("main")
	assert.Equal(t, Unparsed, branch.Major)
	assert.Equal(t, Unparsed, branch.Minor)
	assert.Equal(t, Unparsed, branch.Patch)
	assert.Equal(t, "main", branch.Prerelease)
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		sign int
	}{
		{"1.20.0", "1.3.0", 1},
		{"1.2.3", "1.2.3", 0},
		{"1.2.3", "1.2.3-rc1", 1},
		{"1.2.3-rc1", "1.2.3", -1},
		{"1.2.3-alpha", "1.2.3-beta", -1},
		{"main", "0.0.1", -1},
		{"dev", "main", -1},
		{"2.0.0", "10.0.0", -1},
	}

	for _, tc := range cases {
		t.Run(tc.a+"_vs_"+tc.b, func(t *testing.T) {
			got := Compare(tc.a, tc.b)
			switch tc.sign {
			case 0:
				assert.Zero(t, got)
			case 1:
				assert.Positive(t, got)
			default:
				assert.Negative(t, got)
			}
		})
	}
}

func TestCompareIsAntisymmetric(t *testing.T) {
	values := []string{"1.0.0", "1.0.0-rc", "main", "0.9.12", "1.10.0", "v1.0.0"}
	for _, a := range values {
		for _, b := range values {
			assert.Equal(t, sign(Compare(a, b)), -sign(Compare(b, a)), "%s vs %s", a, b)
		}
	}
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

func TestSortDescending(t *testing.T) {
	input := []string{"1.15.0", "1.24.0", "1.20.1", "main", "1.13.0"}
	snapshot := append([]string(nil), input...)

	got := SortDescending(input)

	assert.Equal(t, []string{"1.24.0", "1.20.1", "1.15.0", "1.13.0", "main"}, got)
	assert.Equal(t, snapshot, input, "input must not be mutated")
}

func TestFindLatest(t *testing.T) {
	latest, ok := FindLatest([]string{"1.15.0", "1.24.0", "1.20.1"})
	require.True(t, ok)
	assert.Equal(t, "1.24.0", latest)

	latest, ok = FindLatest([]string{"1.2.0-rc1", "1.2.0", "1.1.9"})
	require.True(t, ok)
	assert.Equal(t, "1.2.0", latest)

	_, ok = FindLatest(nil)
	assert.False(t, ok)
}

func TestFindLatestKeepsFirstOnTie(t *testing.T) {
	latest, ok := FindLatest([]string{"01.2.0", "1.2.0"})
	require.True(t, ok)
	assert.Equal(t, "01.2.0", latest)

	latest, ok = FindLatest([]string{"main", "dev"})
	require.True(t, ok)
	assert.Equal(t, "main", latest)
}
