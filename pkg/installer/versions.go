package installer

import (
	"regexp"

	"github.com/roemer/gover"
)

// The version formats plugin tags are compared with, the most specific first.
var versionRegexes = []*regexp.Regexp{
	regexp.MustCompile(`^[vV]?(?P<d1>\d+)\.(?P<d2>\d+)\.(?P<d3>\d+)(?:\.(?P<d4>\d+))?`),
	regexp.MustCompile(`^[vV]?(?P<d1>\d+)\.(?P<d2>\d+)`),
	regexp.MustCompile(`^[vV]?(?P<d1>\d+)`),
}

// Checks if the candidate tag denotes a lower version than the reference tag.
// Tags that cannot be compared are never older.
func isOlderVersion(candidate string, reference string) bool {
	for _, versionRegex := range versionRegexes {
		candidateVersion, err := gover.ParseVersionFromRegex(candidate, versionRegex)
		if err != nil {
			continue
		}
		referenceVersion, err := gover.ParseVersionFromRegex(reference, versionRegex)
		if err != nil {
			continue
		}
		return candidateVersion.LessThan(referenceVersion)
	}
	return false
}
