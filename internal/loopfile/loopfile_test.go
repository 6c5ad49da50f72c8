package loopfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsKeyOrder(t *testing.T) {
	obj, err := Parse([]byte(`{"voices": {"snare": [1, 3], "kick": [0]}, "bpm": 120, "alpha": null}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"voices", "bpm", "alpha"}, obj.Keys())

	v, ok := obj.Get("voices")
	require.True(t, ok)
	voices, ok := v.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"snare", "kick"}, voices.Keys())
}

func TestFormatRoundTrip(t *testing.T) {
	src := `{"bpm": 120, "voices": {"closed_hihat": [0, 0.5, 1.25e0], "ride": []}, "tags": {}, "note": "a<b & c"}`
	obj, err := Parse([]byte(src))
	require.NoError(t, err)

	out, err := Format(obj)
	require.NoError(t, err)

	expected := `{
  "bpm": 120,
  "voices": {
    "closed_hihat": [
      0,
      0.5,
      1.25e0
    ],
    "ride": []
  },
  "tags": {},
  "note": "a<b & c"
}
`
	assert.Equal(t, expected, string(out))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"truncated", `{"voices": {`},
		{"array", `[1, 2]`},
		{"string", `"loop"`},
		{"trailing", `{} {}`},
		{"garbage", `{voices: []}`},
		{"trailing comma", `{"a": 1,}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParseNotObject(t *testing.T) {
	_, err := Parse([]byte(`[]`))
	assert.ErrorIs(t, err, ErrNotObject)
}

func TestSetKeepsPosition(t *testing.T) {
	obj := NewObject()
	obj.Set("a", 1)
	obj.Set("b", 2)
	obj.Set("a", 3)

	assert.Equal(t, []string{"a", "b"}, obj.Keys())
	v, _ := obj.Get("a")
	assert.Equal(t, 3, v)

	obj.Delete("a")
	assert.Equal(t, []string{"b"}, obj.Keys())
	assert.False(t, obj.Has("a"))
}

func TestCloneIsDeep(t *testing.T) {
	obj, err := Parse([]byte(`{"voices": {"hat": [1]}}`))
	require.NoError(t, err)

	clone := obj.Clone()
	v, _ := clone.Get("voices")
	v.(*Object).Set("ride", []any{})

	orig, _ := obj.Get("voices")
	assert.False(t, orig.(*Object).Has("ride"))
}

func TestRecordName(t *testing.T) {
	tests := []struct {
		file     string
		expected string
	}{
		{"break.json", "break"},
		{"samba.json", "samba"},
		{"bossa nova.json", "bossa nova"},
		{"a.json.json", "a"},
		{"house.jsonv2.json", "house"},
		{"noext", "noext"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.expected, RecordName(tt.file))
		})
	}
}

func TestIsRecordFile(t *testing.T) {
	assert.True(t, IsRecordFile("groove1.json"))
	assert.False(t, IsRecordFile("house.jsonv2"))
	assert.False(t, IsRecordFile("README.md"))
	assert.False(t, IsRecordFile("groove.JSON"))
}

func TestReadParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"voices":`), 0o644))

	_, err := Read(path)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, path, perr.Path)
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWriteAtomicPreservesMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loop.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	obj := NewObject()
	obj.Set("length_in_beats", 16)
	require.NoError(t, Write(path, obj, WriteOptions{Atomic: true}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"length_in_beats\": 16\n}\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestWriteInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": 1}`), 0o644))

	obj, err := Read(path)
	require.NoError(t, err)
	obj.Set("b", "two")
	require.NoError(t, Write(path, obj, WriteOptions{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": \"two\"\n}\n", string(data))
}

func TestReadInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cafe.json")
	content := []byte("{\"voices\":{\"hat\":[]},\"title\":\"caf\xe9\"}")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	_, err := Read(path)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestParseSurrogateEscapes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"lone high", `{"tag": "\ud800"}`, true},
		{"lone low", `{"tag": "\udc00"}`, true},
		{"high then text", `{"tag": "\ud800x"}`, true},
		{"high then high", `{"tag": "\ud800\ud800"}`, true},
		{"in key", `{"\uDBFF": 1}`, true},
		{"pair", `{"tag": "\ud83c\udfb5"}`, false},
		{"escaped backslash", `{"path": "\\ud800"}`, false},
		{"plain escape", `{"tag": "é\n"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrLoneSurrogate)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseSurrogatePairValue(t *testing.T) {
	obj, err := Parse([]byte(`{"tag": "\ud83c\udfb5", "path": "\\ud800"}`))
	require.NoError(t, err)

	tag, _ := obj.Get("tag")
	assert.Equal(t, "🎵", tag)
	path, _ := obj.Get("path")
	assert.Equal(t, `\ud800`, path)
}

func TestWriteThroughSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "shared", "samba.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte(`{}`), 0o644))

	link := filepath.Join(dir, "samba.json")
	require.NoError(t, os.Symlink(target, link))

	obj := NewObject()
	obj.Set("length_in_beats", 16)
	require.NoError(t, Write(link, obj, WriteOptions{Atomic: true}))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.True(t, info.Mode()&os.ModeSymlink != 0, "record should still be a symlink")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"length_in_beats\": 16\n}\n", string(data))
}
