package output

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = original }()

	fn()

	require.NoError(t, w.Close())

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return string(b)
}

func TestSuccessAndError(t *testing.T) {
	s := Success(map[string]string{"k": "v"})
	require.Equal(t, "v1", s.SchemaVersion)
	require.True(t, s.Success)
	require.NotNil(t, s.Data)
	require.Empty(t, s.Error)

	e := Error(errors.New("boom"))
	require.Equal(t, "v1", e.SchemaVersion)
	require.False(t, e.Success)
	require.Nil(t, e.Data)
	require.Equal(t, "boom", e.Error)
}

func TestPrintSuccessCompactByDefault(t *testing.T) {
	t.Setenv("DAYRALLY_PRETTY_JSON", "")

	out := captureStdout(t, func() {
		require.NoError(t, PrintSuccess(map[string]string{"hello": "world"}))
	})

	require.Equal(t, 1, strings.Count(out, "\n"), "compact output is a single line")
	require.Contains(t, out, `"schema_version":"v1"`)
	require.Contains(t, out, `"hello":"world"`)
}

func TestPrintPrettyViaEnv(t *testing.T) {
	t.Setenv("DAYRALLY_PRETTY_JSON", "1")

	out := captureStdout(t, func() {
		require.NoError(t, PrintSuccess(map[string]string{"hello": "world"}))
	})

	require.Greater(t, strings.Count(out, "\n"), 1)
}

func TestPrintErrorEnvelope(t *testing.T) {
	t.Setenv("DAYRALLY_PRETTY_JSON", "")

	out := captureStdout(t, func() {
		require.NoError(t, PrintError(errors.New("boom")))
	})

	require.Contains(t, out, `"success":false`)
	require.Contains(t, out, `"error":"boom"`)
}
