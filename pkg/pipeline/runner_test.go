package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/generate"
	"github.com/matzehuels/promptree/pkg/graph"
)

// gatedGenerator blocks every call until release is closed.
type gatedGenerator struct {
	release chan struct{}
	fail    func(temperature float64) bool

	mu    sync.Mutex
	temps []float64
}

func newGated() *gatedGenerator {
	return &gatedGenerator{release: make(chan struct{})}
}

func (g *gatedGenerator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	g.mu.Lock()
	g.temps = append(g.temps, temperature)
	g.mu.Unlock()

	select {
	case <-g.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if g.fail != nil && g.fail(temperature) {
		return "", fmt.Errorf("service unavailable")
	}
	return fmt.Sprintf("%s @ %.2f", prompt, temperature), nil
}

func newTestRunner(t *testing.T, g *graph.Graph, gen generate.Generator, n int) *Runner {
	t.Helper()
	r, err := NewRunner(g, gen, Options{
		ResponseCount: n,
		Clock:         func() time.Time { return time.UnixMilli(1000) },
	}, log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

func TestSubmitPromptScenario(t *testing.T) {
	gen := newGated()
	r := newTestRunner(t, graph.NewDefault(), gen, 2)

	batch, err := r.SubmitPrompt(context.Background(), graph.DefaultSystemID, "Hello")
	if err != nil {
		t.Fatalf("SubmitPrompt: %v", err)
	}

	// Placeholders are visible before any call returns
	prompt, ok := r.Graph.Node(batch.PromptID)
	if !ok || prompt.Kind != graph.KindPrompt || prompt.Content != "Hello" {
		t.Fatalf("prompt = %+v, %v", prompt, ok)
	}
	if prompt.Position != (graph.Position{X: 400, Y: 320}) {
		t.Errorf("prompt position = %+v, want (400,320)", prompt.Position)
	}
	wantPos := []graph.Position{{X: 325, Y: 440}, {X: 475, Y: 440}}
	for i, id := range batch.CompletionIDs {
		c, _ := r.Graph.Node(id)
		if c.Kind != graph.KindCompletion || c.Content != PlaceholderContent {
			t.Errorf("completion %d = %+v", i, c)
		}
		if c.Position != wantPos[i] {
			t.Errorf("completion %d position = %+v, want %+v", i, c.Position, wantPos[i])
		}
		e, _ := r.Graph.Edge(batch.EdgeIDs[i])
		if !e.Animated {
			t.Errorf("edge %s should be animated while pending", e.ID)
		}
	}
	if r.Graph.NodeCount() != 4 || r.Graph.EdgeCount() != 3 {
		t.Errorf("got %d nodes, %d edges, want 4, 3", r.Graph.NodeCount(), r.Graph.EdgeCount())
	}
	if batch.Err() != nil {
		t.Error("Err() should be nil before settling")
	}

	close(gen.release)
	if err := batch.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	for i, id := range batch.CompletionIDs {
		c, _ := r.Graph.Node(id)
		want := fmt.Sprintf("Hello @ %.2f", generate.Temperatures(2)[i])
		if c.Content != want {
			t.Errorf("completion %d content = %q, want %q", i, c.Content, want)
		}
		e, _ := r.Graph.Edge(batch.EdgeIDs[i])
		if e.Animated {
			t.Errorf("edge %s should stop animating", e.ID)
		}
	}
}

func TestSubmitPromptTemperatures(t *testing.T) {
	gen := newGated()
	close(gen.release)
	r := newTestRunner(t, graph.NewDefault(), gen, 3)

	batch, err := r.SubmitPrompt(context.Background(), graph.DefaultSystemID, "Hi")
	if err != nil {
		t.Fatal(err)
	}
	_ = batch.Wait()

	seen := make(map[string]bool)
	for _, temp := range gen.temps {
		seen[fmt.Sprintf("%.2f", temp)] = true
	}
	for _, want := range []string{"0.70", "0.80", "0.90"} {
		if !seen[want] {
			t.Errorf("temperature %s not used; got %v", want, gen.temps)
		}
	}
}

func TestBatchAllOrNothing(t *testing.T) {
	gen := newGated()
	gen.fail = func(temp float64) bool { return temp > 0.75 && temp < 0.85 }
	close(gen.release)
	r := newTestRunner(t, graph.NewDefault(), gen, 3)

	batch, err := r.SubmitPrompt(context.Background(), graph.DefaultSystemID, "Hello")
	if err != nil {
		t.Fatalf("SubmitPrompt must not report generation failures: %v", err)
	}

	err = batch.Wait()
	var batchErr *errors.BatchError
	if !stderrors.As(err, &batchErr) {
		t.Fatalf("Wait() = %v, want *errors.BatchError", err)
	}
	if batchErr.PromptID != batch.PromptID || batchErr.Size != 3 {
		t.Errorf("batch error = %+v", batchErr)
	}
	if batch.Err() != err {
		t.Error("Err() should match Wait() once settled")
	}

	for _, id := range batch.CompletionIDs {
		c, _ := r.Graph.Node(id)
		if c.Content != ErrorContent {
			t.Errorf("completion %s = %q, want error content", id, c.Content)
		}
	}
	for _, id := range batch.EdgeIDs {
		if e, _ := r.Graph.Edge(id); e.Animated {
			t.Errorf("edge %s should stop animating after failure", id)
		}
	}
}

func TestStalledCallTimesOut(t *testing.T) {
	gen := newGated() // never released
	r, err := NewRunner(graph.NewDefault(), gen, Options{
		ResponseCount: 2,
		CallTimeout:   50 * time.Millisecond,
	}, log.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}

	batch, err := r.SubmitPrompt(context.WithoutCancel(context.Background()), graph.DefaultSystemID, "Hello")
	if err != nil {
		t.Fatal(err)
	}

	select {
	case <-batch.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not settle after the call timeout")
	}
	if !stderrors.Is(batch.Err(), context.DeadlineExceeded) {
		t.Errorf("Err() = %v, want deadline exceeded", batch.Err())
	}
	for _, id := range batch.CompletionIDs {
		if c, _ := r.Graph.Node(id); c.Content != ErrorContent {
			t.Errorf("completion %s = %q, want error content", id, c.Content)
		}
	}
}

func TestWaitContext(t *testing.T) {
	gen := newGated()
	r := newTestRunner(t, graph.NewDefault(), gen, 1)
	if _, err := r.SubmitPrompt(context.Background(), graph.DefaultSystemID, "Hello"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.WaitContext(ctx); !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitContext with running batch = %v, want deadline exceeded", err)
	}

	close(gen.release)
	if err := r.WaitContext(context.Background()); err != nil {
		t.Errorf("WaitContext after settle = %v", err)
	}
}

func TestBatchFailureIsolated(t *testing.T) {
	failing := newGated()
	failing.fail = func(float64) bool { return true }
	close(failing.release)

	g := graph.NewDefault()
	r := newTestRunner(t, g, generate.Static{Text: "ok"}, 2)

	good, err := r.SubmitPrompt(context.Background(), graph.DefaultSystemID, "first")
	if err != nil {
		t.Fatal(err)
	}
	_ = good.Wait()

	r.Generator = failing
	bad, err := r.SubmitPrompt(context.Background(), graph.DefaultSystemID, "second")
	if err != nil {
		t.Fatal(err)
	}
	if bad.Wait() == nil {
		t.Fatal("expected second batch to fail")
	}

	for _, id := range good.CompletionIDs {
		if c, _ := g.Node(id); c.Content != "ok" {
			t.Errorf("earlier batch changed: %s = %q", id, c.Content)
		}
	}
}

func TestDeleteBeforeSettle(t *testing.T) {
	gen := newGated()
	r := newTestRunner(t, graph.NewDefault(), gen, 3)

	batch, err := r.SubmitPrompt(context.Background(), graph.DefaultSystemID, "Hello")
	if err != nil {
		t.Fatal(err)
	}

	removed := r.Delete(context.Background(), graph.Select(batch.PromptID))
	if len(removed) != 4 {
		t.Errorf("removed %v, want prompt and 3 completions", removed)
	}

	close(gen.release)
	if err := batch.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if r.Graph.NodeCount() != 1 || r.Graph.EdgeCount() != 0 {
		t.Errorf("settle resurrected nodes: %d nodes, %d edges", r.Graph.NodeCount(), r.Graph.EdgeCount())
	}
}

func TestSubmitPromptValidation(t *testing.T) {
	r := newTestRunner(t, graph.NewDefault(), generate.Static{}, 3)

	tests := []struct {
		name   string
		parent string
		text   string
		code   errors.Code
	}{
		{"blank text", graph.DefaultSystemID, "   \n", errors.ErrCodeInvalidInput},
		{"missing parent", "nope", "Hello", errors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.SubmitPrompt(context.Background(), tt.parent, tt.text)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
			if r.Graph.NodeCount() != 1 {
				t.Errorf("graph changed: %d nodes", r.Graph.NodeCount())
			}
		})
	}
}

func TestPromptPlacement(t *testing.T) {
	r := newTestRunner(t, graph.NewDefault(), generate.Static{}, 2)
	ctx := context.Background()

	first, _ := r.SubmitPrompt(ctx, graph.DefaultSystemID, "one")
	second, _ := r.SubmitPrompt(ctx, graph.DefaultSystemID, "two")
	r.Wait()

	if first.PromptID == second.PromptID {
		t.Fatalf("prompt ids collide: %s", first.PromptID)
	}
	p2, _ := r.Graph.Node(second.PromptID)
	if want := (graph.Position{X: 400 + 400*1.2, Y: 320}); !near(p2.Position, want) {
		t.Errorf("second prompt at %+v, want %+v", p2.Position, want)
	}

	// A follow-up below a completion keeps its x (first child)
	c0, _ := r.Graph.Node(first.CompletionIDs[0])
	nested, err := r.SubmitPrompt(ctx, c0.ID, "three")
	if err != nil {
		t.Fatal(err)
	}
	_ = nested.Wait()
	p3, _ := r.Graph.Node(nested.PromptID)
	if want := (graph.Position{X: c0.Position.X, Y: c0.Position.Y + 120}); !near(p3.Position, want) {
		t.Errorf("nested prompt at %+v, want %+v", p3.Position, want)
	}
}

func TestConcurrentSubmitDistinctSlots(t *testing.T) {
	r := newTestRunner(t, graph.NewDefault(), generate.Static{}, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.SubmitPrompt(context.Background(), graph.DefaultSystemID, "q"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	r.Wait()

	xs := make(map[float64]bool)
	for _, n := range r.Graph.Find(func(n graph.Node) bool { return n.Kind == graph.KindPrompt }) {
		if xs[n.Position.X] {
			t.Errorf("two prompts share x=%v", n.Position.X)
		}
		xs[n.Position.X] = true
	}
	if len(xs) != 8 {
		t.Errorf("got %d prompts, want 8", len(xs))
	}
}

func TestSetResponseCount(t *testing.T) {
	r := newTestRunner(t, graph.NewDefault(), generate.Static{}, 0)
	if r.ResponseCount() != DefaultResponseCount {
		t.Errorf("default = %d, want %d", r.ResponseCount(), DefaultResponseCount)
	}

	for _, n := range []int{0, 11, -1} {
		if err := r.SetResponseCount(n); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("SetResponseCount(%d) = %v, want INVALID_INPUT", n, err)
		}
	}
	if err := r.SetResponseCount(5); err != nil {
		t.Fatal(err)
	}
	batch, _ := r.SubmitPrompt(context.Background(), graph.DefaultSystemID, "x")
	if batch.Size() != 5 {
		t.Errorf("batch size = %d, want 5", batch.Size())
	}
	r.Wait()
}

func TestAddSystemNode(t *testing.T) {
	ctx := context.Background()

	r := newTestRunner(t, graph.NewDefault(), generate.Static{}, 1)
	n, err := r.AddSystemNode(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if n.Kind != graph.KindSystem || n.Content != NewSystemContent {
		t.Errorf("node = %+v", n)
	}
	if n.Position != (graph.Position{X: 800, Y: 200}) {
		t.Errorf("position = %+v, want (800,200)", n.Position)
	}

	empty := newTestRunner(t, graph.New(), generate.Static{}, 1)
	n, _ = empty.AddSystemNode(ctx, "Be terse.")
	if n.Position != (graph.Position{X: 300, Y: 200}) || n.Content != "Be terse." {
		t.Errorf("first root = %+v", n)
	}
}

func TestEditAndMove(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t, graph.NewDefault(), generate.Static{}, 1)

	if err := r.UpdateContent(ctx, graph.DefaultSystemID, "Be brief."); err != nil {
		t.Fatal(err)
	}
	if n, _ := r.Graph.Node(graph.DefaultSystemID); n.Content != "Be brief." {
		t.Errorf("content = %q", n.Content)
	}
	if err := r.UpdateContent(ctx, "ghost", "x"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
	if err := r.Move(ctx, "ghost", graph.Position{}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestConnectDisconnect(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t, graph.NewDefault(), generate.Static{}, 1)
	batch, _ := r.SubmitPrompt(ctx, graph.DefaultSystemID, "Hello")
	_ = batch.Wait()
	leaf := batch.CompletionIDs[0]

	// Back edge creating a cycle is accepted
	e, err := r.Connect(ctx, leaf, graph.DefaultSystemID)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := r.Connect(ctx, leaf, graph.DefaultSystemID); !errors.Is(err, errors.ErrCodeDuplicateID) {
		t.Errorf("duplicate connect err = %v", err)
	}
	if _, err := r.Connect(ctx, leaf, "ghost"); !errors.Is(err, errors.ErrCodeDanglingEdge) {
		t.Errorf("dangling connect err = %v", err)
	}

	// Tree export still terminates
	if _, err := r.Export(FormatTree); err != nil {
		t.Errorf("Export(tree) with cycle: %v", err)
	}

	if err := r.Disconnect(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	if err := r.Disconnect(ctx, e.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second disconnect err = %v", err)
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	src := newTestRunner(t, graph.NewDefault(), generate.Static{Text: "A"}, 2)
	batch, _ := src.SubmitPrompt(ctx, graph.DefaultSystemID, "Q")
	_ = batch.Wait()
	data, err := src.Export(FormatJSON)
	if err != nil {
		t.Fatal(err)
	}

	dst := newTestRunner(t, graph.NewDefault(), generate.Static{}, 3)
	ids, err := dst.Import(ctx, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(ids) != 4 || dst.Graph.NodeCount() != 5 {
		t.Errorf("imported %d, graph has %d nodes", len(ids), dst.Graph.NodeCount())
	}

	root, ok := dst.Graph.Node("imported-" + graph.DefaultSystemID)
	if !ok {
		t.Fatal("imported root missing")
	}
	// existing max x is 400, so the offset is 800
	if root.Position.X != 1200 || root.Position.Y != 200 {
		t.Errorf("imported root at %+v, want (1200,200)", root.Position)
	}

	if _, err := dst.Import(ctx, strings.NewReader("{broken")); !errors.Is(err, errors.ErrCodeImportParse) {
		t.Errorf("err = %v, want IMPORT_PARSE", err)
	}
	if dst.Graph.NodeCount() != 5 {
		t.Error("failed import changed the graph")
	}
}

func TestExportFormats(t *testing.T) {
	r := newTestRunner(t, graph.NewDefault(), generate.Static{}, 1)

	tree, err := r.Export(FormatTree)
	if err != nil || string(tree) != graph.DefaultSystemContent+"\n" {
		t.Errorf("tree = %q, %v", tree, err)
	}
	dot, err := r.Export(FormatDOT)
	if err != nil || !strings.Contains(string(dot), `pos="400,-200!"`) {
		t.Errorf("dot = %q, %v", dot, err)
	}
	js, err := r.Export(FormatJSON)
	if err != nil || !strings.Contains(string(js), `"responseCount": 1`) {
		t.Errorf("json = %s, %v", js, err)
	}
	if _, err := r.Export("gif"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestFileName(t *testing.T) {
	at := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	tests := map[string]string{
		FormatJSON: "graph-2025-01-02.json",
		FormatTree: "conversation-tree-2025-01-02.txt",
		FormatSVG:  "graph-2025-01-02.svg",
	}
	for format, want := range tests {
		if got := FileName(format, at); got != want {
			t.Errorf("FileName(%s) = %q, want %q", format, got, want)
		}
	}
}

func TestNewRunnerValidation(t *testing.T) {
	if _, err := NewRunner(nil, generate.Static{}, Options{}, nil); err == nil {
		t.Error("expected error for nil graph")
	}
	if _, err := NewRunner(graph.New(), generate.Static{}, Options{ResponseCount: 42}, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func near(a, b graph.Position) bool {
	const eps = 1e-9
	return a.X-b.X < eps && b.X-a.X < eps && a.Y-b.Y < eps && b.Y-a.Y < eps
}
