// Package providers adapts the LLM SDKs to a single completion call.
package providers

// Request is one completion call. System may be empty.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}
