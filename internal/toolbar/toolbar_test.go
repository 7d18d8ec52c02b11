package toolbar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-sidebar/internal/models"
)

func TestCapabilityFor(t *testing.T) {
	assert.Equal(t, CapabilityWebSearch, CapabilityFor("Globe"))
	assert.Equal(t, CapabilityReasoning, CapabilityFor("Brain"))
	assert.Equal(t, CapabilityTools, CapabilityFor("Wrench"))
	assert.Equal(t, CapabilityPlugins, CapabilityFor("Puzzle"))
	assert.Equal(t, CapabilityTools, CapabilityFor("Rocket"))
	assert.Equal(t, CapabilityTools, CapabilityFor(""))
}

func TestBarToggle(t *testing.T) {
	bar := NewBar([]models.Tool{
		{ID: "web", Icon: "Globe"},
		{ID: "code", Icon: "Unknown", Enabled: true},
	})
	require.Equal(t, []string{"code"}, bar.EnabledIDs())

	enabled, err := bar.Toggle("web")
	require.NoError(t, err)
	require.True(t, enabled)

	enabled, err = bar.Toggle("code")
	require.NoError(t, err)
	require.False(t, enabled)

	_, err = bar.Toggle("missing")
	require.ErrorIs(t, err, ErrUnknownTool)

	states := bar.States()
	require.Len(t, states, 2)
	assert.True(t, states[0].IsEnabled)
	assert.Equal(t, "web_search", states[0].Capability)
	assert.False(t, states[1].IsEnabled)
	assert.Equal(t, "tools", states[1].Capability)
	require.Equal(t, []string{"web"}, bar.EnabledIDs())
}

func TestModelSelector(t *testing.T) {
	available := []models.AIModel{{ID: "a", Name: "Model A"}, {ID: "b", Name: "Model B"}}

	selector := NewModelSelector(available, "")
	require.Equal(t, "Select a model", selector.Label())
	_, ok := selector.Selected()
	require.False(t, ok)

	require.ErrorIs(t, selector.Select("zzz"), ErrUnknownModel)
	require.NoError(t, selector.Select("b"))
	require.Equal(t, "Model B", selector.Label())

	selector = NewModelSelector(available, "a")
	model, ok := selector.Selected()
	require.True(t, ok)
	require.Equal(t, "a", model.ID)
}

func TestParseCatalog(t *testing.T) {
	catalog, err := ParseCatalog([]byte(`
tools:
  - id: web
    name: Web
    icon: Globe
    enabled: true
models:
  - id: m1
    name: Model One
default_model: m1
`))
	require.NoError(t, err)
	require.Len(t, catalog.Tools, 1)
	require.True(t, catalog.Tools[0].Enabled)
	require.Equal(t, "m1", catalog.DefaultModel)
}

func TestParseCatalogInvalid(t *testing.T) {
	cases := map[string]string{
		"duplicate tool":  "tools:\n  - id: a\n  - id: a\n",
		"missing id":      "models:\n  - name: nameless\n",
		"unknown default": "models:\n  - id: a\ndefault_model: b\n",
		"bad yaml":        "tools: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)
	require.NoError(t, catalog.validate())
	require.NotEmpty(t, catalog.Tools)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models:\n  - id: x\n    name: X\n"), 0o600))
	catalog, err = LoadCatalog(path)
	require.NoError(t, err)
	require.Equal(t, "X", catalog.Models[0].Name)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
