package idgen

import (
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestULIDGenerator_Generate(t *testing.T) {
	g := NewULIDGenerator()

	seen := make(map[string]struct{})
	prev := ""
	for i := 0; i < 1000; i++ {
		id := g.Generate()

		if _, err := ulid.ParseStrict(id); err != nil {
			t.Fatalf("generated id %q is not a valid ULID: %v", id, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		if id <= prev {
			t.Fatalf("ids must sort in generation order: %q after %q", id, prev)
		}
		seen[id] = struct{}{}
		prev = id
	}
}
