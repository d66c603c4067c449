// Package providers implements the text-generation backends used to evaluate
// an assembled prompt.
//
// Every backend satisfies Generator. Anthropic, OpenAI, Azure OpenAI, Ollama
// (and LM Studio) and the Hugging Face Inference API are called over plain
// JSON HTTP; Gemini goes through the official genai SDK. Credentials come
// from Options or from the provider's usual environment variables.
//
// Rate-limit (429) and server (5xx) failures are retried with exponential
// backoff. Authentication failures are never retried and can be detected
// with IsAuthError.
package providers
