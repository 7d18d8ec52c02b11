package sidebar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVisibilityStoreNotifies(t *testing.T) {
	store := NewVisibilityStore(false)
	var seen []bool
	unsubscribe := store.Subscribe(func(open bool) { seen = append(seen, open) })

	store.Toggle()
	store.SetOpen(true)
	store.SetOpen(false)
	unsubscribe()
	store.Toggle()

	require.Equal(t, []bool{true, false}, seen)
	require.True(t, store.IsOpen())
}
