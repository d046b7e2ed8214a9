package graph

import (
	"fmt"
	"slices"
)

// Kind is the role of a node in a conversation.
type Kind uint8

const (
	// KindSystem is a conversation root holding system instructions.
	KindSystem Kind = iota + 1
	// KindPrompt is a user prompt.
	KindPrompt
	// KindCompletion is a generated response to its parent prompt.
	KindCompletion
)

var kindNames = map[Kind]string{
	KindSystem:     "system",
	KindPrompt:     "prompt",
	KindCompletion: "completion",
}

// String returns the wire name of the kind ("system", "prompt", "completion").
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind converts a wire name into a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid node kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Position is a 2D canvas coordinate. Y grows downward.
type Position struct {
	X float64
	Y float64
}

// Node is a single system, prompt or completion unit.
// The zero value is not usable - ID and Kind must be set before adding to a Graph.
type Node struct {
	ID       string   // Unique identifier, immutable once added
	Kind     Kind     // Role in the conversation
	Content  string   // Text, mutable
	Position Position // Canvas position assigned at creation
}

// Edge is a directed parent→child link.
type Edge struct {
	ID       string // Unique identifier
	Source   string // Parent node ID
	Target   string // Child node ID
	Animated bool   // True while the target is a pending placeholder
}

// Snapshot is a consistent copy of the graph contents.
type Snapshot struct {
	Nodes []Node
	Edges []Edge
}

// Selection is the set of node IDs the user has selected.
type Selection map[string]struct{}

// Select builds a Selection from ids.
func Select(ids ...string) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is selected.
func (s Selection) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the selected IDs in sorted order.
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
