package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRegistry_AddRemove(t *testing.T) {
	r := New()
	assert.Equal(t, 0, r.Size())

	assert.True(t, r.Add("a"))
	assert.False(t, r.Add("a"), "duplicate add must not insert")
	assert.True(t, r.Add("b"))
	assert.Equal(t, 2, r.Size())
	assert.True(t, r.Has("a"))

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"), "second remove must be a no-op")
	assert.False(t, r.Remove("never"))
	assert.Equal(t, []string{"b"}, r.Members())
}

func TestRegistry_MembersSortedCopy(t *testing.T) {
	r := New()
	r.Add("c")
	r.Add("a")
	r.Add("b")

	members := r.Members()
	assert.Equal(t, []string{"a", "b", "c"}, members)

	members[0] = "mutated"
	assert.True(t, r.Has("a"))
}

func TestRegistry_Clear(t *testing.T) {
	r := New()
	r.Add("a")
	r.Add("b")

	assert.Equal(t, 2, r.Clear())
	assert.Equal(t, 0, r.Size())
	assert.Equal(t, 0, r.Clear())
}

func TestRegistry_SetSemantics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := New()
		model := make(map[string]bool)

		ids := rapid.SampledFrom([]string{"a", "b", "c", "d", "e"})
		ops := rapid.IntRange(1, 60).Draw(t, "ops")

		for i := 0; i < ops; i++ {
			id := ids.Draw(t, "id")
			if rapid.Bool().Draw(t, "add") {
				inserted := r.Add(id)
				if inserted == model[id] {
					t.Fatalf("Add(%q) inserted=%v but model present=%v", id, inserted, model[id])
				}
				model[id] = true
			} else {
				removed := r.Remove(id)
				if removed != model[id] {
					t.Fatalf("Remove(%q) removed=%v but model present=%v", id, removed, model[id])
				}
				delete(model, id)
			}

			if r.Size() != len(model) {
				t.Fatalf("size %d, model %d", r.Size(), len(model))
			}
		}
	})
}
