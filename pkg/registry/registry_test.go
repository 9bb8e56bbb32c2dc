package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	ID   string
	Name string
}

func TestStore_Register(t *testing.T) {
	s := New[*testItem]()

	tests := []struct {
		name    string
		itemID  string
		item    *testItem
		wantErr bool
	}{
		{name: "register valid item", itemID: "a", item: &testItem{ID: "a"}, wantErr: false},
		{name: "register with empty name", itemID: "", item: &testItem{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Register(tt.itemID, tt.item)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStore_RegisterDuplicate(t *testing.T) {
	s := New[*testItem]()
	item := &testItem{ID: "a"}
	require.NoError(t, s.Register("a", item))

	// Re-registering the identical instance is idempotent (T2).
	assert.NoError(t, s.Register("a", item))

	// Registering a different instance under the same name fails (T1).
	err := s.Register("a", &testItem{ID: "a"})
	require.Error(t, err)
	assert.IsType(t, &AlreadyRegisteredError{}, err)
}

func TestStore_Aliases(t *testing.T) {
	s := New[*testItem]()
	item := &testItem{ID: "bash"}
	require.NoError(t, s.Register("bash", item, "sh", "shell"))

	for _, name := range []string{"bash", "sh", "shell"} {
		got, err := s.Get(name)
		require.NoError(t, err)
		assert.Same(t, item, got)
	}

	// An alias colliding with a different canonical entry fails.
	assert.Error(t, s.Register("other", &testItem{ID: "other"}, "sh"))
}

func TestStore_Get_NotFound(t *testing.T) {
	s := New[*testItem]()
	_, err := s.Get("missing")
	require.Error(t, err)
	assert.IsType(t, &NotFoundError{}, err)
}

func TestStore_Unregister(t *testing.T) {
	s := New[*testItem]()
	item := &testItem{ID: "a"}
	_ = s.Register("a", item, "alpha")

	require.NoError(t, s.Unregister("a"))
	_, err := s.Get("a")
	assert.Error(t, err, "expected item to be gone")
	_, err = s.Get("alpha")
	assert.Error(t, err, "expected alias to be dropped along with canonical entry")
	assert.Error(t, s.Unregister("a"), "expected error on double unregister")
}

func TestStore_ListIsIndependentSnapshot(t *testing.T) {
	s := New[*testItem]()
	_ = s.Register("a", &testItem{ID: "a"})

	snap := s.List()
	_ = s.Register("b", &testItem{ID: "b"})

	assert.Len(t, snap, 1, "snapshot should not observe later writes")
	assert.Equal(t, 2, s.Count())
}

func TestStore_Clear(t *testing.T) {
	s := New[*testItem]()
	_ = s.Register("a", &testItem{ID: "a"}, "alpha")
	s.Clear()
	assert.Equal(t, 0, s.Count())
	_, err := s.Get("alpha")
	assert.Error(t, err, "expected alias to be cleared")
}
