package copilot

import "dev.copilot.gateway/internal/models"

// catalog lists the models the Copilot CLI accepts via --model.
var catalog = []models.ModelInfo{
	{ID: "claude-sonnet-4.5", Name: "Claude Sonnet 4.5", Description: "Latest Claude Sonnet model", Provider: "anthropic"},
	{ID: "claude-sonnet-4", Name: "Claude Sonnet 4", Description: "Claude Sonnet 4 model", Provider: "anthropic"},
	{ID: "claude-opus-4.5", Name: "Claude Opus 4.5", Description: "Most capable Claude model", Provider: "anthropic"},
	{ID: "claude-haiku-4.5", Name: "Claude Haiku 4.5", Description: "Fast Claude model", Provider: "anthropic"},
	{ID: "gpt-5", Name: "GPT-5", Description: "OpenAI GPT-5", Provider: "openai"},
	{ID: "gpt-5.1", Name: "GPT-5.1", Description: "OpenAI GPT-5.1", Provider: "openai"},
	{ID: "gpt-5.2", Name: "GPT-5.2", Description: "OpenAI GPT-5.2", Provider: "openai"},
	{ID: "gpt-5-mini", Name: "GPT-5 Mini", Description: "Smaller GPT-5 model", Provider: "openai"},
	{ID: "gemini-3-pro-preview", Name: "Gemini 3 Pro Preview", Description: "Google Gemini 3 Pro", Provider: "google"},
}

// Models returns the supported model catalog.
func Models() []models.ModelInfo {
	out := make([]models.ModelInfo, len(catalog))
	copy(out, catalog)
	return out
}
