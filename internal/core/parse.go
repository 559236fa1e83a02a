package core

import (
	"strings"

	"symptrack/pkg"
)

// ParseReply extracts the structured result from a provider reply.  It is a
// pure function of text and never fails: missing markers leave the
// UnknownDisease / RiskNeutral defaults in place.
//
// Only the first DISEASE: and first RISK: lines are used, but every line
// carrying either prefix is removed from Analysis.  Prefixes are matched
// case-sensitively at the very start of the line.
func ParseReply(text string) pkg.AnalysisResult {
	result := pkg.AnalysisResult{
		Disease:      pkg.UnknownDisease,
		Risk:         pkg.RiskNeutral,
		FullResponse: text,
	}

	var seenDisease, seenRisk bool
	kept := make([]string, 0, 8)
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, DiseaseMarker):
			if !seenDisease {
				result.Disease = strings.TrimSpace(strings.TrimPrefix(line, DiseaseMarker))
				seenDisease = true
			}
		case strings.HasPrefix(line, RiskMarker):
			if !seenRisk {
				result.Risk = ClassifyRisk(strings.TrimPrefix(line, RiskMarker))
				seenRisk = true
			}
		default:
			kept = append(kept, line)
		}
	}

	result.Analysis = strings.TrimSpace(strings.Join(kept, "\n"))
	return result
}

// ClassifyRisk maps free risk text onto the closed RiskLevel set by
// case-insensitive substring match.  "high" is checked before "low".
func ClassifyRisk(text string) pkg.RiskLevel {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "high"):
		return pkg.RiskHigh
	case strings.Contains(lower, "low"):
		return pkg.RiskLow
	default:
		return pkg.RiskNeutral
	}
}
