package core

import (
	"symptrack/pkg"
)

// Summary is the single-analysis view shown after a chat turn: the risk
// badge, the model's own analysis text and a canned next-step suggestion.
type Summary struct {
	Disease    string        `json:"disease" yaml:"disease"`
	RiskLevel  pkg.RiskLevel `json:"risk_level" yaml:"risk_level"`
	AISummary  string        `json:"ai_summary" yaml:"ai_summary"`
	Suggestion string        `json:"suggestion" yaml:"suggestion"`
}

// Suggestions keyed by risk level.  The wording never claims a diagnosis.
var suggestions = map[pkg.RiskLevel]string{
	pkg.RiskHigh: "Your description may need prompt attention. Contact a healthcare professional or visit the " +
		"recommended department as soon as possible.",
	pkg.RiskLow: "Rest, stay hydrated and follow the recovery suggestions above. If symptoms persist or worsen, " +
		"consult a healthcare professional.",
	pkg.RiskNeutral: "Keep tracking how you feel. If symptoms persist or worsen, consult a healthcare professional.",
}

// Summarize builds the summary view for one analysis result.
func Summarize(result pkg.AnalysisResult) Summary {
	suggestion, ok := suggestions[result.Risk]
	if !ok {
		suggestion = suggestions[pkg.RiskNeutral]
	}
	return Summary{
		Disease:    result.Disease,
		RiskLevel:  result.Risk,
		AISummary:  result.Analysis,
		Suggestion: suggestion,
	}
}
