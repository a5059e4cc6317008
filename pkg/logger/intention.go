package logger

// Intention represents the semantic intent of a log line, orthogonal to level.
// The console handler renders it as an icon; file logs keep it as an attribute.
type Intention string

const (
	IntentionStatistics Intention = "statistics"
	IntentionStatus     Intention = "status"
	IntentionOutput     Intention = "output"
	IntentionSuccess    Intention = "success"
	IntentionDebug      Intention = "debug"
	IntentionConfig     Intention = "config"
	IntentionTrim       Intention = "trim"
	IntentionCounter    Intention = "counter"
)

// iconFor returns a short emoji string for console output for the intention.
func iconFor(i Intention) string {
	switch i {
	case IntentionStatistics:
		return "📊"
	case IntentionStatus:
		return "ℹ️"
	case IntentionOutput:
		return "↳"
	case IntentionSuccess:
		return "✅"
	case IntentionDebug:
		return "🛠️"
	case IntentionConfig:
		return "⚙️"
	case IntentionTrim:
		return "✂️"
	case IntentionCounter:
		return "🔢"
	default:
		return "➤"
	}
}
