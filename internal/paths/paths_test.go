package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDataDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_DATA_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
		got, err := DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-data/easypresenter", got)
	})

	t.Run("falls back to ~/.local/share when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".local", "share", "easypresenter"), got)
	})
}

func TestResolveDataDir(t *testing.T) {
	t.Run("flag wins over env", func(t *testing.T) {
		flagDir := t.TempDir()
		t.Setenv(EnvDataDir, t.TempDir())

		got, err := ResolveDataDir(flagDir)
		require.NoError(t, err)
		assert.Equal(t, flagDir, got)
	})

	t.Run("env used when flag empty", func(t *testing.T) {
		envDir := t.TempDir()
		t.Setenv(EnvDataDir, envDir)

		got, err := ResolveDataDir("")
		require.NoError(t, err)
		assert.Equal(t, envDir, got)
	})
}

func TestResolveResourceDir_DefaultsNextToExecutable(t *testing.T) {
	t.Setenv(EnvResourceDir, "")
	exeDir := t.TempDir()

	orig := platformDir.executable
	platformDir.executable = func() (string, error) {
		return filepath.Join(exeDir, "easypresenter"), nil
	}
	t.Cleanup(func() { platformDir.executable = orig })

	got, err := ResolveResourceDir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(exeDir, ResourceDirName), got)
}

func TestDatabasePath(t *testing.T) {
	t.Run("creates missing parents", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "a", "b", "c")

		got, err := DatabasePath(root, "songs.db")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "songs.db"), got)

		info, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("rejects names with separators", func(t *testing.T) {
		for _, name := range []string{"", "../songs.db", "x/songs.db", ".."} {
			_, err := DatabasePath(t.TempDir(), name)
			assert.ErrorIs(t, err, ErrInvalidName, name)
		}
	})

	t.Run("fails when directory cannot be created", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("permission bits not enforced")
		}
		parent := t.TempDir()
		blocker := filepath.Join(parent, "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		_, err := DatabasePath(filepath.Join(blocker, "sub"), "songs.db")
		assert.Error(t, err)
	})
}
