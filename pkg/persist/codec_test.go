package persist

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testState is a struct for round-trip codec testing.
type testState struct {
	Name   string         `json:"name"   yaml:"name"`
	Count  int            `json:"count"  yaml:"count"`
	Values map[string]int `json:"values" yaml:"values"`
}

func TestJSONCodec_CompactNoIndent(t *testing.T) {
	t.Parallel()

	codec := &JSONCodec{Indent: ""}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, testState{Name: "compact", Count: 1}))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestYAMLCodec_BlockStyle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, NewYAMLCodec().Encode(&buf, testState{Name: "block", Count: 2, Values: map[string]int{"a": 1}}))
	assert.Equal(t, "name: block\ncount: 2\nvalues:\n  a: 1\n", buf.String())
}

func TestLZ4Codec_CompressesInner(t *testing.T) {
	t.Parallel()

	codec := NewLZ4Codec(NewJSONCodec())
	original := testState{Name: strings.Repeat("x", 512), Count: 7}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, original))
	assert.Less(t, buf.Len(), 512)

	var decoded testState

	require.NoError(t, codec.Decode(&buf, &decoded))
	assert.Equal(t, original, decoded)
	assert.Equal(t, ".json.lz4", codec.Extension())
}

func TestCodecForPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		ext  string
	}{
		{path: "records.json", ext: ".json"},
		{path: "records.yaml", ext: ".yaml"},
		{path: "dir/Records.YML", ext: ".yaml"},
		{path: "records.yaml.lz4", ext: ".yaml.lz4"},
		{path: "records.json.lz4", ext: ".json.lz4"},
	}

	for _, tt := range tests {
		codec, err := CodecForPath(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.ext, codec.Extension(), tt.path)
	}

	_, err := CodecForPath("records.csv")
	require.ErrorIs(t, err, ErrUnknownExtension)
}

func TestSaveLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.yaml")
	original := testState{Name: "saved", Count: 3, Values: map[string]int{"a": 1}}

	require.NoError(t, SaveFile(path, NewYAMLCodec(), original))

	var loaded testState

	require.NoError(t, LoadFile(path, NewYAMLCodec(), &loaded))
	assert.Equal(t, original, loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestSaveLoadFile_NilMapLoadsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.yaml")

	require.NoError(t, SaveFile(path, NewYAMLCodec(), testState{Name: "nil"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "values: {}")

	var loaded testState

	require.NoError(t, LoadFile(path, NewYAMLCodec(), &loaded))
	assert.Equal(t, "nil", loaded.Name)
	assert.NotNil(t, loaded.Values)
	assert.Empty(t, loaded.Values)
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	var state testState

	err := LoadFile(filepath.Join(t.TempDir(), "missing.json"), NewJSONCodec(), &state)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteFileAtomic_KeepsPermissions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.yaml")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	require.NoError(t, WriteFileAtomic(path, []byte("new")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteFileAtomic_FollowsSymlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "real.yaml")
	link := filepath.Join(dir, "index.yaml")

	require.NoError(t, os.WriteFile(target, []byte("old"), 0o600))
	require.NoError(t, os.Symlink(target, link))

	require.NoError(t, WriteFileAtomic(link, []byte("new")))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "link must stay a symlink")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
