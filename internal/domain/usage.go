package domain

import "context"

// DefaultKeyPrefix namespaces every storage key written by the service.
const DefaultKeyPrefix = "promptsgo:"

type completionUsageKey struct{}

// CompletionUsage collects token usage for a single HTTP request.
// The handler puts a mutable pointer into the context before calling the service;
// the playground writes after the model call; the handler reads it for response headers.
type CompletionUsage struct {
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Used             bool
}

// NewContextWithUsage returns a context with a usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *CompletionUsage) {
	u := &CompletionUsage{}
	return context.WithValue(ctx, completionUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *CompletionUsage {
	u, _ := ctx.Value(completionUsageKey{}).(*CompletionUsage)
	return u
}

// Add records consumed tokens. Safe on a nil receiver.
func (u *CompletionUsage) Add(model string, promptTokens, completionTokens, totalTokens int) {
	if u == nil {
		return
	}
	u.Model = model
	u.PromptTokens += promptTokens
	u.CompletionTokens += completionTokens
	u.TotalTokens += totalTokens
	u.Used = true
}

type viewerKey struct{}

// ContextWithViewer stores the caller's opaque viewer id.
func ContextWithViewer(ctx context.Context, viewerID string) context.Context {
	return context.WithValue(ctx, viewerKey{}, viewerID)
}

// ViewerFromContext returns the caller's viewer id, or "" for anonymous callers.
func ViewerFromContext(ctx context.Context) string {
	v, _ := ctx.Value(viewerKey{}).(string)
	return v
}
