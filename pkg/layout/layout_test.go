package layout

import (
	"math"
	"testing"

	"github.com/matzehuels/promptree/pkg/graph"
)

const eps = 1e-9

func near(a, b graph.Position) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps
}

func TestPrompt(t *testing.T) {
	e := Default()
	parent := graph.Position{X: 400, Y: 200}

	tests := []struct {
		name  string
		index int
		depth int
		want  graph.Position
	}{
		{"first child", 0, 1, graph.Position{X: 400, Y: 320}},
		{"second child depth 1", 1, 1, graph.Position{X: 400 + 400*1.2, Y: 320}},
		{"second child depth 2", 1, 2, graph.Position{X: 400 + 400*1.44, Y: 320}},
		{"third child depth 3", 2, 3, graph.Position{X: 400 + 2*400*1.728, Y: 320}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Prompt(parent, tt.index, tt.depth)
			if !near(got, tt.want) {
				t.Errorf("Prompt() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCompletions(t *testing.T) {
	e := Default()
	prompt := graph.Position{X: 400, Y: 320}

	tests := []struct {
		name string
		n    int
		want []float64
	}{
		{"none", 0, nil},
		{"one", 1, []float64{400}},
		{"two", 2, []float64{325, 475}},
		{"three", 3, []float64{250, 400, 550}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Completions(prompt, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, x := range tt.want {
				if !near(got[i], graph.Position{X: x, Y: 440}) {
					t.Errorf("completion %d = %+v, want (%v,440)", i, got[i], x)
				}
			}
		})
	}
}

func TestCompletionsSymmetric(t *testing.T) {
	e := Default()
	prompt := graph.Position{X: 17, Y: 3}
	for n := 1; n <= 10; n++ {
		got := e.Completions(prompt, n)
		for i := range got {
			mirror := got[n-1-i]
			if math.Abs((got[i].X-prompt.X)+(mirror.X-prompt.X)) > eps {
				t.Errorf("n=%d: completions %d and %d not symmetric", n, i, n-1-i)
			}
		}
	}
}

func TestSystem(t *testing.T) {
	e := Default()
	tests := []struct {
		name     string
		maxX     float64
		hasNodes bool
		want     graph.Position
	}{
		{"empty graph", 0, false, graph.Position{X: 300, Y: 200}},
		{"negative max", -20, true, graph.Position{X: 300, Y: 200}},
		{"zero max", 0, true, graph.Position{X: 400, Y: 200}},
		{"after default root", 400, true, graph.Position{X: 800, Y: 200}},
		{"after wide tree", 1234.5, true, graph.Position{X: 1634.5, Y: 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.System(tt.maxX, tt.hasNodes); !near(got, tt.want) {
				t.Errorf("System() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestImportOffset(t *testing.T) {
	e := Default()
	if got := e.ImportOffset(0, false); got != 300 {
		t.Errorf("empty: %v, want 300", got)
	}
	if got := e.ImportOffset(-1, true); got != 300 {
		t.Errorf("negative: %v, want 300", got)
	}
	if got := e.ImportOffset(475, true); got != 875 {
		t.Errorf("475: %v, want 875", got)
	}
}

func TestDeterminism(t *testing.T) {
	e := Default()
	parent := graph.Position{X: 123.4, Y: -56.7}
	for i := 0; i < 50; i++ {
		if a, b := e.Prompt(parent, 3, 4), e.Prompt(parent, 3, 4); a != b {
			t.Fatalf("Prompt not deterministic: %+v vs %+v", a, b)
		}
		a, b := e.Completions(parent, 5), e.Completions(parent, 5)
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("Completions not deterministic at %d", j)
			}
		}
	}
}
