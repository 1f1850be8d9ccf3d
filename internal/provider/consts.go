package provider

type Type string

// OpenAI covers every OpenAI-compatible chat completion endpoint.
const OpenAI Type = "openai"

var SupportedProviders = []Type{
	OpenAI,
}

type ModelInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider Type   `json:"provider"`
}
