package semver

import (
	"fmt"
	"regexp"
	"strings"

	sv "github.com/Masterminds/semver"
)

type Version = sv.Version

// Parse parses s leniently. Four-part versions such as "7.1.1963.1", as reported by Windows binaries,
// are read as "7.1.1963-1".
func Parse(s string) (*Version, error) {
	fixedS := nonSemverWorkaround(strings.TrimSpace(s))

	return sv.NewVersion(fixedS)
}

// AtLeast reports whether version is greater than or equal to min.
func AtLeast(version, min string) (bool, error) {
	v, err := Parse(version)
	if err != nil {
		return false, fmt.Errorf("parsing %q as semver: %w", version, err)
	}

	m, err := Parse(min)
	if err != nil {
		return false, fmt.Errorf("parsing %q as semver: %w", min, err)
	}

	return !v.LessThan(m), nil
}

var versionRegex *regexp.Regexp

func init() {
	versionRegex = regexp.MustCompile(`v?([0-9]+)(\.[0-9]+)?(\.[0-9]+)?` + `(.*)`)
}

func nonSemverWorkaround(s string) string {
	matches := versionRegex.FindStringSubmatch(s)

	var preLike string

	if len(matches) > 3 {
		preLike = matches[4]
	}

	if preLike != "" && preLike[0] == '.' {
		s = ""
		ss := matches[1:4]
		for i := range ss {
			if ss[i] != "" {
				s += ss[i]
			}
		}

		s += "-" + preLike[1:]
	}

	return s
}
