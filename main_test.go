package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/o0olele/voxnav-go/math32"
)

const testConfig = `
navigation:
  levels: 3
  max_jump_height: 1
  max_fall_height: 1
  agent_height: 2
world:
  size: {x: 4, y: 4, z: 2}
  solids:
    - {min: {x: 0, y: 0, z: 0}, max: {x: 3, y: 3, z: 0}}
log:
  level: error
`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "voxnav.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(testConfig), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", cfgFile}, args...))
	t.Cleanup(func() {
		snapshotPath, allowArg = "", ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseVector(t *testing.T) {
	v, err := parseVector("1, 2.5,-3")
	require.NoError(t, err)
	assert.Equal(t, math32.Vector3{X: 1, Y: 2.5, Z: -3}, v)

	_, err = parseVector("1,2")
	assert.Error(t, err)
	_, err = parseVector("1,b,3")
	assert.Error(t, err)
}

func TestCLI_BuildAndPath(t *testing.T) {
	out := filepath.Join(t.TempDir(), "graph.vnav")

	stdout, err := runCLI(t, "build", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "21 nodes")
	assert.FileExists(t, out)

	stdout, err = runCLI(t, "path", "--from", "0.5,0.5,1.5", "--to", "3.5,3.5,1.5", "--snapshot", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "path of 7 nodes")

	stdout, err = runCLI(t, "path", "--from", "0.5,0.5,1.5", "--to", "3.5,0.5,1.5")
	require.NoError(t, err)
	assert.Contains(t, stdout, "path of 4 nodes")
}

func TestCLI_BadArguments(t *testing.T) {
	_, err := runCLI(t, "path", "--from", "0,0", "--to", "1,1,1")
	assert.Error(t, err)

	_, err = runCLI(t, "path", "--from", "0,0,1", "--to", "1,1,1", "--allow", "fly")
	assert.Error(t, err)
}
