package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Haleralex/tokenforge-devserver/internal/browser"
	domainerrors "github.com/Haleralex/tokenforge-devserver/internal/domain/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func executeCommand(ctx context.Context, root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err = root.ExecuteContext(ctx)
	return buf.String(), err
}

func TestHelpFlag(t *testing.T) {
	output, err := executeCommand(context.Background(), newRootCmd(), "--help")
	require.NoError(t, err)

	for _, flag := range []string{"--config", "--port", "--host", "--dir", "--no-browser", "--log-level", "--env-file"} {
		assert.Contains(t, output, flag)
	}
}

func TestVersionFlag(t *testing.T) {
	output, err := executeCommand(context.Background(), newRootCmd(), "--version")
	require.NoError(t, err)

	assert.Contains(t, output, "devserver version "+version)
}

func TestRejectsArgs(t *testing.T) {
	_, err := executeCommand(context.Background(), newRootCmd(), "extra")

	assert.Error(t, err)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := executeCommand(context.Background(), newRootCmd(),
		"--config", filepath.Join(t.TempDir(), "nope.yaml"),
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "config")
}

func TestMissingExplicitEnvFile(t *testing.T) {
	_, err := executeCommand(context.Background(), newRootCmd(),
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "env file")
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("DefaultMayBeAbsent", func(t *testing.T) {
		assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), ".env"), false))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.NoError(t, loadEnvFile("", true))
	})

	t.Run("SetsVariables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("DEVSERVER_TEST_MARKER=from-dotenv\n"), 0o644))
		t.Cleanup(func() { os.Unsetenv("DEVSERVER_TEST_MARKER") })

		require.NoError(t, loadEnvFile(path, true))
		assert.Equal(t, "from-dotenv", os.Getenv("DEVSERVER_TEST_MARKER"))
	})
}

func TestServeAndInterrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>wallet demo</h1>"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	urls := make(chan string, 1)
	launcher := browser.LauncherFunc(func(u string) error {
		urls <- u
		return nil
	})

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := executeCommand(ctx, newRootCmdWithLauncher(launcher),
			"--dir", dir, "--host", "127.0.0.1", "--port", "0", "--log-level", "error",
		)
		done <- result{out, err}
	}()

	var pageURL string
	select {
	case pageURL = <-urls:
	case r := <-done:
		t.Fatalf("command exited early: %v\n%s", r.err, r.out)
	case <-time.After(5 * time.Second):
		t.Fatal("browser was not launched")
	}

	resp, err := http.Get(pageURL)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "<h1>wallet demo</h1>", string(body))

	// Ctrl+C приходит в виде отмены контекста
	cancel()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Contains(t, r.out, "Serving from: "+dir)
		assert.Contains(t, r.out, "Server stopped. Goodbye!")
	case <-time.After(5 * time.Second):
		t.Fatal("command did not stop")
	}
}

func TestPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)

	output, err := executeCommand(context.Background(), newRootCmd(),
		"--dir", t.TempDir(), "--host", "127.0.0.1", "--port", port, "--no-browser", "--log-level", "error",
	)

	require.Error(t, err)
	assert.True(t, domainerrors.IsPortInUse(err))
	assert.True(t, strings.Contains(output, "Server failed to start"))
}
