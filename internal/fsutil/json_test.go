package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Value int    `json:"value"`
	Name  string `json:"name"`
}

func TestWriteReadJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "record.json")

	var got record
	found, err := ReadJSON(path, &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, WriteJSON(path, record{Value: 7, Name: "seven"}))
	require.NoError(t, WriteJSON(path, record{Value: 8, Name: "eight"}))

	found, err = ReadJSON(path, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, record{Value: 8, Name: "eight"}, got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must not be left behind")
}

func TestReadJSON_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "record.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	var got record
	_, err := ReadJSON(path, &got)
	assert.Error(t, err)
}
