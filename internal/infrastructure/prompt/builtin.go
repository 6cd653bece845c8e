package prompt

// Built-in per-type defaults, used by a unit when no template or custom
// prompt was resolved at creation.
var builtin = map[string]string{
	"general":  "You are a helpful AI assistant powered by Azure OpenAI. Provide clear, accurate, and helpful responses.",
	"coder":    "You are an expert software developer using Azure OpenAI. Help with coding questions, debugging, and best practices. Always provide working code examples.",
	"analyzer": "You are a data analyst powered by Azure OpenAI. Help analyze information, create summaries, and extract actionable insights.",
	"creative": "You are a creative writer using Azure OpenAI. Help with storytelling, creative writing, and imaginative content creation.",
}

// BuiltinForType returns the default system prompt for an agent type,
// falling back to the general prompt for unknown types.
func BuiltinForType(agentType string) string {
	if text, ok := builtin[agentType]; ok {
		return text
	}
	return builtin["general"]
}
