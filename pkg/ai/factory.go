package ai

import "fmt"

// NewChatService creates a ChatService based on the configured provider
func NewChatService(provider ProviderType, apiKey, model string) (ChatService, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIService(apiKey, model), nil
	case ProviderGroq:
		return NewGroqService(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", provider)
	}
}
