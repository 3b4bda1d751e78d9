// Package dialogue runs interrogation turns against a text-generation
// provider with a scripted per-persona fallback when the provider fails.
package dialogue

import "context"

// InvokeInput carries one provider invocation request.
type InvokeInput struct {
	Model        string
	Instructions string
	Input        string
}

// InvokeResult carries the provider's reply text.
type InvokeResult struct {
	OutputText string
}

// Provider invokes an external text-generation backend once per call.
type Provider interface {
	Invoke(ctx context.Context, input InvokeInput) (InvokeResult, error)
}
