package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclang/arc/internal/loader"
	"github.com/arclang/arc/internal/model"
	"github.com/arclang/arc/internal/transport"
	"github.com/arclang/arc/internal/transport/local"
)

func localFactory(target *model.Target) (transport.Transport, error) {
	return local.New(local.Config{Name: target.Name})
}

func TestFindProjectRoot_WalksUpward(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "arc.lua"), []byte(""), 0o644))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := loader.FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindProjectRoot_NotFound(t *testing.T) {
	_, err := loader.FindProjectRoot(t.TempDir())
	assert.Error(t, err)
}

func TestLoader_LoadEvaluatesEntryScript(t *testing.T) {
	root := t.TempDir()
	src := `
targets.systems.box = { kind = "local" }
tasks.hello = { handler = function(system) return "hi" end }
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "arc.lua"), []byte(src), 0o644))

	l, err := loader.New(loader.Config{NewTarget: localFactory})
	require.NoError(t, err)

	res, err := l.Load(root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Runtime.Close() })

	reg := res.Builder.Registry()
	assert.Contains(t, reg.Systems, "box")
	assert.Contains(t, reg.Tasks, "hello")
}

func TestLoader_MergesDotEnvOverProcessEnv(t *testing.T) {
	root := t.TempDir()
	src := `
targets.systems.box = { kind = "local" }
tasks.read_env = { handler = function(system) return env.get("ARC_TEST_VAR") end }
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "arc.lua"), []byte(src), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("ARC_TEST_VAR=from_dotenv\n"), 0o644))

	t.Setenv("ARC_TEST_VAR", "from_process")

	l, err := loader.New(loader.Config{NewTarget: localFactory})
	require.NoError(t, err)

	res, err := l.Load(root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Runtime.Close() })

	reg := res.Builder.Registry()
	assert.Contains(t, reg.Tasks, "read_env")

	got, err := res.Runtime.InvokeHandler(context.Background(), reg.Tasks["read_env"], reg.Systems["box"])
	require.NoError(t, err)
	assert.Equal(t, "from_dotenv", got.String)
}
