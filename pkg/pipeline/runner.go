package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/generate"
	"github.com/matzehuels/promptree/pkg/graph"
	pkgio "github.com/matzehuels/promptree/pkg/io"
	"github.com/matzehuels/promptree/pkg/layout"
	"github.com/matzehuels/promptree/pkg/observability"
)

// Runner applies user actions to one graph.
// Both CLI and API use this to avoid duplicating placement and batch logic.
//
// Actions that read the graph to decide where new nodes go (prompts, system
// roots, imports) are serialized by the runner so two concurrent actions
// never compute the same position or child index. Generation calls run
// outside that lock.
type Runner struct {
	Graph     *graph.Graph
	Generator generate.Generator
	Layout    layout.Engine
	IDs       *graph.IDSource
	Logger    *log.Logger

	callTimeout time.Duration

	mu            sync.Mutex
	responseCount int
	inflight      sync.WaitGroup
}

// NewRunner creates a runner over g.
// If logger is nil, log.Default() is used.
func NewRunner(g *graph.Graph, gen generate.Generator, opts Options, logger *log.Logger) (*Runner, error) {
	if g == nil || gen == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "runner needs a graph and a generator")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Graph:         g,
		Generator:     gen,
		Layout:        opts.Layout,
		IDs:           graph.NewIDSource(opts.Clock),
		Logger:        logger,
		callTimeout:   opts.CallTimeout,
		responseCount: opts.ResponseCount,
	}, nil
}

// ResponseCount returns the current batch size.
func (r *Runner) ResponseCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responseCount
}

// SetResponseCount changes the batch size used by later prompts.
// n must be within [errors.MinResponseCount, errors.MaxResponseCount].
func (r *Runner) SetResponseCount(n int) error {
	if err := errors.ValidateResponseCount(n); err != nil {
		return err
	}
	r.mu.Lock()
	r.responseCount = n
	r.mu.Unlock()
	r.Logger.Debug("response count changed", "n", n)
	return nil
}

// SubmitPrompt attaches a new prompt below parentID, inserts placeholder
// completions for it and starts the generation batch in the background.
//
// It returns once the placeholders are in the graph. Generation failures
// are never returned here; they are reported through the returned Batch
// and the error content of the placeholders. The batch runs with ctx, so
// callers that must not cancel it should pass a detached context; each
// call is still bounded by the runner's call timeout.
func (r *Runner) SubmitPrompt(ctx context.Context, parentID, text string) (*Batch, error) {
	if err := errors.ValidatePromptText(text); err != nil {
		return nil, err
	}

	r.mu.Lock()
	batch, err := r.insertPrompt(parentID, text)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	observability.Graph().OnNodesAdded(ctx, graph.KindPrompt.String(), batch.Size()+1)
	observability.Generation().OnBatchStart(ctx, batch.PromptID, batch.Size())
	r.Logger.Info("prompt submitted", "prompt", batch.PromptID, "parent", parentID, "n", batch.Size())

	r.inflight.Add(1)
	go r.run(ctx, batch, text)
	return batch, nil
}

// insertPrompt lays out and inserts the prompt and its placeholders.
// Callers hold r.mu.
func (r *Runner) insertPrompt(parentID, text string) (*Batch, error) {
	parent, ok := r.Graph.Node(parentID)
	if !ok {
		return nil, errors.Wrap(errors.ErrCodeNotFound, graph.ErrNodeNotFound, "parent %s", parentID)
	}
	depth, _ := r.Graph.Depth(parentID)
	index := len(r.Graph.Children(parentID))
	n := r.responseCount

	promptID := r.IDs.PromptID()
	promptPos := r.Layout.Prompt(parent.Position, index, depth+1)

	nodes := make([]graph.Node, 0, n+1)
	edges := make([]graph.Edge, 0, n+1)
	nodes = append(nodes, graph.Node{ID: promptID, Kind: graph.KindPrompt, Content: text, Position: promptPos})
	edges = append(edges, graph.Edge{ID: graph.EdgeID(parentID, promptID), Source: parentID, Target: promptID})

	completionIDs := make([]string, n)
	edgeIDs := make([]string, n)
	for i, pos := range r.Layout.Completions(promptPos, n) {
		completionIDs[i] = graph.CompletionID(promptID, i)
		edgeIDs[i] = graph.EdgeID(promptID, completionIDs[i])
		nodes = append(nodes, graph.Node{
			ID:       completionIDs[i],
			Kind:     graph.KindCompletion,
			Content:  PlaceholderContent,
			Position: pos,
		})
		edges = append(edges, graph.Edge{
			ID:       edgeIDs[i],
			Source:   promptID,
			Target:   completionIDs[i],
			Animated: true,
		})
	}

	if err := r.Graph.Insert(nodes, edges); err != nil {
		return nil, graphError(err)
	}
	return newBatch(promptID, completionIDs, edgeIDs), nil
}

// run performs the generation calls of b and settles it.
func (r *Runner) run(ctx context.Context, b *Batch, text string) {
	defer r.inflight.Done()
	start := time.Now()

	temps := generate.Temperatures(b.Size())
	results := make([]string, len(temps))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, temp := range temps {
		eg.Go(func() error {
			callCtx, cancel := context.WithTimeout(egCtx, r.callTimeout)
			defer cancel()

			callStart := time.Now()
			out, err := r.Generator.Generate(callCtx, text, temp)
			observability.Generation().OnCallComplete(ctx, b.PromptID, i, temp, time.Since(callStart), err)
			if err != nil {
				return fmt.Errorf("response %d: %w", i, err)
			}
			results[i] = out
			return nil
		})
	}

	var batchErr error
	if err := eg.Wait(); err != nil {
		batchErr = &errors.BatchError{PromptID: b.PromptID, Size: b.Size(), Cause: err}
	}
	r.settle(b, results, batchErr != nil)

	duration := time.Since(start)
	observability.Generation().OnBatchComplete(ctx, b.PromptID, b.Size(), duration, batchErr)
	if batchErr != nil {
		r.Logger.Error("generation failed", "prompt", b.PromptID, "n", b.Size(), "err", batchErr)
	} else {
		r.Logger.Info("generation finished", "prompt", b.PromptID, "n", b.Size(), "duration", duration)
	}
	b.finish(batchErr)
}

// settle writes the outcome of b into the graph in one update. Placeholders
// that were deleted in the meantime are skipped by the graph.
func (r *Runner) settle(b *Batch, results []string, failed bool) {
	r.Graph.Update(func(tx *graph.Tx) {
		for i, id := range b.CompletionIDs {
			content := results[i]
			if failed {
				content = ErrorContent
			}
			tx.UpdateNodeContent(id, content)
			tx.SetEdgeAnimated(b.EdgeIDs[i], false)
		}
	})
}

// Wait blocks until every batch started so far has settled.
func (r *Runner) Wait() {
	r.inflight.Wait()
}

// WaitContext is like Wait but gives up when ctx is done and returns
// ctx.Err(). Batches left running keep settling in the background.
func (r *Runner) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddSystemNode appends a new conversation root to the right of the graph.
// An empty content uses NewSystemContent.
func (r *Runner) AddSystemNode(ctx context.Context, content string) (graph.Node, error) {
	if content == "" {
		content = NewSystemContent
	}

	r.mu.Lock()
	maxX, ok := r.Graph.MaxX()
	n := graph.Node{
		ID:       r.IDs.SystemID(),
		Kind:     graph.KindSystem,
		Content:  content,
		Position: r.Layout.System(maxX, ok),
	}
	err := r.Graph.AddNode(n)
	r.mu.Unlock()
	if err != nil {
		return graph.Node{}, graphError(err)
	}

	observability.Graph().OnNodesAdded(ctx, graph.KindSystem.String(), 1)
	r.Logger.Info("system node added", "id", n.ID)
	return n, nil
}

// UpdateContent replaces the content of node id.
func (r *Runner) UpdateContent(ctx context.Context, id, content string) error {
	if !r.Graph.UpdateNodeContent(id, content) {
		return errors.Wrap(errors.ErrCodeNotFound, graph.ErrNodeNotFound, "node %s", id)
	}
	r.Logger.Debug("content updated", "id", id)
	return nil
}

// Move repositions node id.
func (r *Runner) Move(ctx context.Context, id string, pos graph.Position) error {
	if !r.Graph.MoveNode(id, pos) {
		return errors.Wrap(errors.ErrCodeNotFound, graph.ErrNodeNotFound, "node %s", id)
	}
	return nil
}

// Connect adds a manual edge from source to target. Cycles are accepted;
// tree traversals tolerate them.
func (r *Runner) Connect(ctx context.Context, source, target string) (graph.Edge, error) {
	e := graph.Edge{ID: graph.EdgeID(source, target), Source: source, Target: target}
	if err := r.Graph.AddEdge(e); err != nil {
		return graph.Edge{}, graphError(err)
	}
	r.Logger.Debug("edge added", "id", e.ID)
	return e, nil
}

// Disconnect removes edge id.
func (r *Runner) Disconnect(ctx context.Context, id string) error {
	if r.Graph.RemoveEdges([]string{id}) == 0 {
		return errors.New(errors.ErrCodeNotFound, "edge %s not found", id)
	}
	r.Logger.Debug("edge removed", "id", id)
	return nil
}

// Delete removes the selected nodes and all of their descendants and
// returns the removed ids. Unknown ids are ignored.
func (r *Runner) Delete(ctx context.Context, sel graph.Selection) []string {
	removed := r.Graph.CascadingDelete(sel.IDs()...)
	if len(removed) > 0 {
		observability.Graph().OnNodesRemoved(ctx, len(removed))
		r.Logger.Info("nodes deleted", "selected", len(sel), "removed", len(removed))
	}
	return removed
}

// Import merges a JSON document read from src into the graph, to the right
// of the existing nodes. On error the graph is unchanged.
func (r *Runner) Import(ctx context.Context, src io.Reader) ([]string, error) {
	doc, err := pkgio.ReadDocument(src)
	if err != nil {
		observability.Graph().OnImport(ctx, 0, err)
		return nil, err
	}

	r.mu.Lock()
	maxX, ok := r.Graph.MaxX()
	ids, err := pkgio.Merge(r.Graph, doc, r.Layout.ImportOffset(maxX, ok))
	r.mu.Unlock()

	observability.Graph().OnImport(ctx, len(ids), err)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("graph imported", "nodes", len(ids), "edges", len(doc.Edges))
	return ids, nil
}

// Document returns the current graph as a JSON document.
func (r *Runner) Document() *pkgio.Document {
	return pkgio.NewDocument(r.Graph.Snapshot(), r.ResponseCount())
}

func graphError(err error) error {
	switch {
	case stderrors.Is(err, graph.ErrDuplicateID):
		return errors.Wrap(errors.ErrCodeDuplicateID, err, "id already in use")
	case stderrors.Is(err, graph.ErrDanglingEdge):
		return errors.Wrap(errors.ErrCodeDanglingEdge, err, "edge references a missing node")
	case stderrors.Is(err, graph.ErrInvalidID):
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid id")
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "graph update failed")
}
