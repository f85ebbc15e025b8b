package usecase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParserOptionsEmptyPath(t *testing.T) {
	opts, err := LoadParserOptions("")
	require.NoError(t, err)
	assert.Empty(t, opts.Synonyms)
	assert.Empty(t, opts.StopWords)
}

func TestLoadParserOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
synonyms:
  - from: "fitito"
    to: "fiat 600"
stop_words: [che, dale]
model_whitelist: ["600"]
`), 0o600))

	opts, err := LoadParserOptions(path)
	require.NoError(t, err)
	require.Len(t, opts.Synonyms, 1)
	assert.Equal(t, SynonymPair{From: "fitito", To: "fiat 600"}, opts.Synonyms[0])
	assert.Equal(t, []string{"che", "dale"}, opts.StopWords)
	assert.Equal(t, []string{"600"}, opts.ModelWhitelist)
}

func TestLoadParserOptionsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("synonyms:\n  - from: \"solo\"\n"), 0o600))

	_, err := LoadParserOptions(path)
	assert.Error(t, err)

	_, err = LoadParserOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
