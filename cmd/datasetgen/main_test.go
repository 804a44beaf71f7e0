package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhpenta/datasetgen"
)

func TestReadQueueFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
requests:
  - prompt: a red apple
    quantity: 2
    labels: [fruit, red]
    aspect_ratio: "16:9"
  - prompt: a pear
`), 0o600))

	inputs, err := readQueueFile(path)
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	assert.Equal(t, datasetgen.RequestInput{
		Prompt:      "a red apple",
		Quantity:    2,
		Labels:      []string{"fruit", "red"},
		AspectRatio: datasetgen.AspectRatio16x9,
	}, inputs[0])
	assert.Equal(t, "a pear", inputs[1].Prompt)
	assert.Zero(t, inputs[1].Quantity)
}

func TestReadQueueFile_Errors(t *testing.T) {
	_, err := readQueueFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading requests")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("requests: {"), 0o600))
	_, err = readQueueFile(path)
	assert.ErrorContains(t, err, "parsing requests")
}
