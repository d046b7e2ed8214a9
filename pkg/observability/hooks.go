// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about generation batches, graph mutations, and API requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the core packages stay
// free of any observability framework.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetGenerationHooks(&myGenerationHooks{})
//	    observability.SetGraphHooks(&myGraphHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Generation().OnBatchStart(ctx, promptID, n)
//	// ... fan out calls ...
//	observability.Generation().OnBatchComplete(ctx, promptID, n, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Generation Hooks
// =============================================================================

// GenerationHooks receives events from prompt batches.
type GenerationHooks interface {
	// OnBatchStart fires after the placeholders of a batch are inserted.
	OnBatchStart(ctx context.Context, promptID string, size int)

	// OnCallComplete fires once per generation call.
	OnCallComplete(ctx context.Context, promptID string, index int, temperature float64, duration time.Duration, err error)

	// OnBatchComplete fires after a batch has settled. err is nil on success.
	OnBatchComplete(ctx context.Context, promptID string, size int, duration time.Duration, err error)
}

// =============================================================================
// Graph Hooks
// =============================================================================

// GraphHooks receives events from graph mutations.
type GraphHooks interface {
	// OnNodesAdded records nodes inserted by a user action or import.
	OnNodesAdded(ctx context.Context, kind string, count int)

	// OnNodesRemoved records a cascading delete.
	OnNodesRemoved(ctx context.Context, count int)

	// OnImport records a merge attempt.
	OnImport(ctx context.Context, nodeCount int, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming HTTP request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response written for a request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGenerationHooks is a no-op implementation of GenerationHooks.
type NoopGenerationHooks struct{}

func (NoopGenerationHooks) OnBatchStart(context.Context, string, int) {}
func (NoopGenerationHooks) OnCallComplete(context.Context, string, int, float64, time.Duration, error) {
}
func (NoopGenerationHooks) OnBatchComplete(context.Context, string, int, time.Duration, error) {}

// NoopGraphHooks is a no-op implementation of GraphHooks.
type NoopGraphHooks struct{}

func (NoopGraphHooks) OnNodesAdded(context.Context, string, int) {}
func (NoopGraphHooks) OnNodesRemoved(context.Context, int)       {}
func (NoopGraphHooks) OnImport(context.Context, int, error)      {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	generationHooks GenerationHooks = NoopGenerationHooks{}
	graphHooks      GraphHooks      = NoopGraphHooks{}
	httpHooks       HTTPHooks       = NoopHTTPHooks{}
	hooksMu         sync.RWMutex
)

// SetGenerationHooks registers custom generation hooks.
// This should be called once at application startup before any prompt is submitted.
func SetGenerationHooks(h GenerationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		generationHooks = h
	}
}

// SetGraphHooks registers custom graph hooks.
func SetGraphHooks(h GraphHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		graphHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before the server starts.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Generation returns the registered generation hooks.
func Generation() GenerationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return generationHooks
}

// Graph returns the registered graph hooks.
func Graph() GraphHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return graphHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	generationHooks = NoopGenerationHooks{}
	graphHooks = NoopGraphHooks{}
	httpHooks = NoopHTTPHooks{}
}
