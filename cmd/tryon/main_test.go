package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJPEG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 3)), nil))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEncodeCommand(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, filepath.Join(dir, "shirt.jpg"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("skip me"), 0o644))

	out, err := runRoot(t, "encode", dir)
	require.NoError(t, err)

	target := filepath.Join(dir, "encoded", "shirt.txt")
	assert.Contains(t, out, target)

	payload, err := os.ReadFile(target)
	require.NoError(t, err)
	data, err := base64.StdEncoding.DecodeString(string(payload))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "encoded", "notes.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestReadImages_AcceptsEncodedPayloads(t *testing.T) {
	dir := t.TempDir()
	photo := filepath.Join(dir, "person.jpg")
	writeJPEG(t, photo)
	_, err := runRoot(t, "encode", dir)
	require.NoError(t, err)

	broken := filepath.Join(dir, "broken.txt")
	require.NoError(t, os.WriteFile(broken, []byte("%%%"), 0o644))

	files, err := readImages(context.Background(), photo, filepath.Join(dir, "encoded", "person.txt"))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "image/jpeg", files[0].mediaType)
	assert.Equal(t, "image/png", files[1].mediaType)
	_, err = png.Decode(bytes.NewReader(files[1].data))
	assert.NoError(t, err)

	_, err = readImages(context.Background(), broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.txt")
}

func TestEncodeCommand_MissingDir(t *testing.T) {
	_, err := runRoot(t, "encode", filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestComposeCommand_RequiresFlags(t *testing.T) {
	_, err := runRoot(t, "compose", "--person", "a.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "garment")
}

func TestComposeCommand_MissingAPIKey(t *testing.T) {
	for _, key := range []string{"GEMINI_API_KEY", "API_KEY", "GEMINI_BACKEND"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	person := filepath.Join(dir, "person.jpg")
	garment := filepath.Join(dir, "garment.jpg")
	writeJPEG(t, person)
	writeJPEG(t, garment)

	_, err := runRoot(t,
		"--config", filepath.Join(dir, "missing.yaml"),
		"compose",
		"--person", person,
		"--garment", garment,
		"--out", filepath.Join(dir, "out.png"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY is not set.")

	_, statErr := os.Stat(filepath.Join(dir, "out.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestComposeCommand_MissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := runRoot(t,
		"--config", filepath.Join(dir, "missing.yaml"),
		"compose",
		"--person", filepath.Join(dir, "nobody.jpg"),
		"--garment", filepath.Join(dir, "nothing.jpg"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestLoadConfig_LogLevelOverride(t *testing.T) {
	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{
		"--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"--log-level", "debug",
	}))

	cfg, err := loadConfig(root)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}
