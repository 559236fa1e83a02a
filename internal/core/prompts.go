package core

// prompts.go defines the fixed instruction sent ahead of the patient note.
// The two marker lines it demands are what ParseReply looks for, so the
// wording of the IMPORTANT paragraph must stay in step with the parser.

const (
	// DiseaseMarker and RiskMarker prefix the first two reply lines.
	DiseaseMarker = "DISEASE:"
	RiskMarker    = "RISK:"

	// AnalysisPrompt is concatenated with the raw symptom text.  It ends
	// with "Patient note: " so the symptoms follow directly.
	AnalysisPrompt = `You are a medical note analyzer assistant. The user is pretending to be a patient and has written their symptoms below. Based on this note:

1. Predict the possible disease.
2. Label the risk as "High Risk", "Low Risk", or "Neutral".
3. Suggest which hospital department the patient should visit (if necessary).
4. Mention possible medications (for general understanding only).
5. Provide practical suggestions for quick recovery with minimal effort or harm.

Do not respond with excessively long messages.
Your answer should be medically reasonable, informative, and easy to understand.

IMPORTANT: Start your response with "` + DiseaseMarker + ` [disease name]" and "` + RiskMarker + ` [risk level]" on separate lines, then continue with your analysis.

Patient note: `
)

// BuildPrompt returns the full prompt for one analysis.
func BuildPrompt(symptoms string) string {
	return AnalysisPrompt + symptoms
}
