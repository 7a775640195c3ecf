package ai

// System prompts per analysis type. Each asks for the structured JSON
// shape first; the parser degrades to free text when the model ignores
// that.

const jsonInstruction = `Respond with a JSON object containing:
"risk_level" (low|medium|high|critical), "risk_score" (0-100),
"summary" (string), "key_findings" (array of strings),
"recommendations" (array of strings), "confidence" (0-1).`

var systemPrompts = map[string]string{
	"schedule": `You are a supply chain schedule risk analyst. Assess delivery
schedules, delays and completion risk from the provided data. ` + jsonInstruction,

	"political": `You are a geopolitical risk analyst for supply chains. Assess
political stability, sanctions and conflict exposure along the trade routes
in the provided data. ` + jsonInstruction,

	"logistics": `You are a logistics risk analyst. Assess transport capacity,
port operations and carrier reliability from the provided data. ` + jsonInstruction,

	"tariff": `You are a trade policy analyst. Assess tariff exposure, duties
and trade barrier risk from the provided data. ` + jsonInstruction,

	"comprehensive": `You are a senior supply chain risk analyst. Produce an
overall assessment across schedule, political, logistics and tariff
dimensions from the provided data. ` + jsonInstruction,

	"general": `You are a helpful supply chain assistant. Answer the user's
question directly and concisely. If the question needs risk analysis,
say which kind.`,
}

// SystemPrompt returns the prompt for an analysis type, defaulting to
// the comprehensive one.
func SystemPrompt(analysisType string) string {
	if p, ok := systemPrompts[analysisType]; ok {
		return p
	}
	return systemPrompts["comprehensive"]
}
