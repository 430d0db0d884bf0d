package openai

import (
	"sync"

	"github.com/sashabaranov/go-openai"
)

var (
	once      sync.Once
	singleton *openai.Client
)

// GetClient returns the process-wide OpenAI client. The key passed on the
// first call wins; later calls reuse the same client.
func GetClient(apiKey string) *openai.Client {
	once.Do(func() {
		singleton = openai.NewClient(apiKey)
	})

	return singleton
}
