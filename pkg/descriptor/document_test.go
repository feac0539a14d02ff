package descriptor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDescriptor = `{
  "name": "n8x",
  "displayName": "N8X <Chat>",
  "version": "0.4.9",
  "engines": {"vscode": "^1.90.0"},
  "contributes": {
    "commands": [],
    "menus": {}
  }
}
`

func writeDescriptor(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "package.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "package.json"))
	require.ErrorIs(t, err, ErrMissingFile)
}

func TestLoadMalformed(t *testing.T) {
	cases := map[string]string{
		"syntax":   `{"name": "x", "version": }`,
		"array":    `["name", "version"]`,
		"trailing": `{"name": "x"} {}`,
		"empty":    ``,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeDescriptor(t, content))
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestVersionFieldValidation(t *testing.T) {
	doc, err := Parse([]byte(`{"name": "x", "version": 3}`))
	require.NoError(t, err)
	_, err = doc.Version()
	assert.ErrorIs(t, err, ErrMalformed)

	doc, err = Parse([]byte(`{"name": "x", "version": "1.2"}`))
	require.NoError(t, err)
	_, err = doc.Version()
	assert.ErrorIs(t, err, ErrMalformed)

	doc, err = Parse([]byte(`{"version": "1.2.3"}`))
	require.NoError(t, err)
	_, err = doc.Name()
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSavePreservesOtherKeys(t *testing.T) {
	path := writeDescriptor(t, sampleDescriptor)
	doc, err := Load(path)
	require.NoError(t, err)

	v, err := doc.Version()
	require.NoError(t, err)
	next, err := v.BumpPatch()
	require.NoError(t, err)
	require.NoError(t, doc.SetVersion(next))
	require.NoError(t, doc.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `{
  "name": "n8x",
  "displayName": "N8X <Chat>",
  "version": "0.4.10",
  "engines": {
    "vscode": "^1.90.0"
  },
  "contributes": {
    "commands": [],
    "menus": {}
  }
}
`
	assert.Equal(t, want, string(data))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "displayName", "version", "engines", "contributes"}, reloaded.Keys())
}

func TestDuplicateKeyKeepsFirstPosition(t *testing.T) {
	doc, err := Parse([]byte(`{"version": "1.0.0", "name": "a", "version": "2.0.0"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"version", "name"}, doc.Keys())
	v, err := doc.Version()
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", v.String())
}
