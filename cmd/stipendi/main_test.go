package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	remotemem "stipendi/internal/remote/memory"
)

var fixedNow = time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

type harness struct {
	dbPath string
	remote *remotemem.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, key := range []string{"GITHUB_OWNER", "GITHUB_REPO", "GITHUB_TOKEN", "AMQP_URL", "STORAGE_KEY", "START_YEAR", "END_YEAR"} {
		t.Setenv(key, "")
	}
	return &harness{dbPath: filepath.Join(t.TempDir(), "stipendi.db")}
}

// run executes one CLI invocation against the harness database.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{
		out:    &out,
		logOut: io.Discard,
		now:    func() time.Time { return fixedNow },
	}
	if h.remote != nil {
		a.remote = h.remote
	}
	root := newRootCmd(a)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--backend", "sqlite", "--db", h.dbPath, "--offline"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSetAndShow(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "set", "2500,50")
	require.NoError(t, err)
	assert.Contains(t, out, "Dati salvati!")
	assert.Contains(t, out, "2.500,50 €")
	assert.Contains(t, out, "Marzo 2026")

	out, err = h.run(t, "show", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"monthId": "03"`)
	assert.Contains(t, out, `"value": "2500.5"`)
}

func TestSetRejectsInvalidAmount(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "set", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Importo non valido")

	_, err = h.run(t, "set", "--", "-10")
	require.Error(t, err)
}

func TestNavigation(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "next")
	require.NoError(t, err)
	out, err := h.run(t, "show", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"monthId": "04"`)

	_, err = h.run(t, "month", "14")
	require.NoError(t, err)
	_, err = h.run(t, "prev-year")
	require.NoError(t, err)
	out, err = h.run(t, "show", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"monthId": "14"`)
	assert.Contains(t, out, `"year": 2025`)

	_, err = h.run(t, "year", "1990")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fuori intervallo")

	_, err = h.run(t, "month", "15")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mese non valido")
}

func TestTheme(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "theme")
	require.NoError(t, err)
	out, err := h.run(t, "show", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"theme": "dark"`)

	_, err = h.run(t, "theme", "light")
	require.NoError(t, err)
	out, err = h.run(t, "show", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"theme": "light"`)

	_, err = h.run(t, "theme", "blue")
	require.Error(t, err)
}

func TestExportImport(t *testing.T) {
	h := newHarness(t)
	backup := filepath.Join(t.TempDir(), "backup.json")

	_, err := h.run(t, "set", "1800")
	require.NoError(t, err)
	out, err := h.run(t, "export", "-o", backup)
	require.NoError(t, err)
	assert.Contains(t, out, "Backup salvato")

	raw, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"salaries"`)

	other := newHarness(t)
	out, err = other.run(t, "import", backup)
	require.NoError(t, err)
	assert.Contains(t, out, "Dati importati con successo!")
	assert.Contains(t, out, "1.800,00 €")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"view":{}}`), 0o600))
	_, err = other.run(t, "import", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file di backup non valido")
}

func TestCompare(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "set", "2000")
	require.NoError(t, err)
	_, err = h.run(t, "prev-year")
	require.NoError(t, err)
	_, err = h.run(t, "set", "1800")
	require.NoError(t, err)

	out, err := h.run(t, "compare", "2025", "2026")
	require.NoError(t, err)
	assert.Contains(t, out, "2025 vs 2026")

	_, err = h.run(t, "compare", "2025", "abc")
	require.Error(t, err)
}

func TestLoginPushesAndRecordsHistory(t *testing.T) {
	h := newHarness(t)
	h.remote = remotemem.New()

	out, err := h.run(t, "login", "https://example.test/?token=secret&x=1")
	require.NoError(t, err)
	assert.Contains(t, out, "Token salvato")

	_, err = h.run(t, "set", "2100")
	require.NoError(t, err)

	content, ok := h.remote.Content()
	require.True(t, ok)
	assert.Contains(t, string(content), "2100")
	require.Len(t, h.remote.Puts(), 1)

	out, err = h.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	out, err = h.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Token rimosso")

	_, err = h.run(t, "login", "https://example.test/")
	require.Error(t, err)
}

func TestNavigationDoesNotPush(t *testing.T) {
	h := newHarness(t)
	h.remote = remotemem.New()

	_, err := h.run(t, "login", "https://example.test/?token=secret")
	require.NoError(t, err)
	_, err = h.run(t, "next")
	require.NoError(t, err)
	_, err = h.run(t, "year", "2030")
	require.NoError(t, err)

	assert.Empty(t, h.remote.Puts())
}

func TestInvalidBackend(t *testing.T) {
	h := newHarness(t)
	var out bytes.Buffer
	a := &app{out: &out, logOut: io.Discard}
	root := newRootCmd(a)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--backend", "redis", "--db", h.dbPath, "show"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid data backend")
}
