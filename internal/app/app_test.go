package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cotizador/internal/config"
	"cotizador/internal/lib/logger"
	"cotizador/internal/service/quote"
	"cotizador/internal/service/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	catalog := filepath.Join(dir, "machines.json")
	require.NoError(t, os.WriteFile(catalog, []byte(`{"CM780.docx":{"base":1000,"options":{}}}`), 0o644))

	return &config.Config{
		Paths: config.Paths{
			Catalog:     catalog,
			Backups:     filepath.Join(dir, "respaldos"),
			HistoryDir:  dir,
			HistoryDocs: filepath.Join(dir, "historial_docs"),
			Mappings:    filepath.Join(dir, "template_mappings.json"),
			Templates:   filepath.Join(dir, "plantillas"),
			Output:      filepath.Join(dir, "salidas"),
		},
		Quote: config.Quote{Currency: "USD", ValidityDays: 30},
		Sync:  config.CatalogSync{TTL: time.Minute},
	}
}

func TestNew(t *testing.T) {
	a := New(testConfig(t), logger.Discard())

	assert.Equal(t, []string{"CM780.docx"}, a.Catalog.Names())
	require.NotNil(t, a.Quotes)

	// без источника синхронизация падает, но каталог остаётся локальным
	st := a.Sync.Sync(context.Background(), true)
	assert.False(t, st.OK)
	assert.Equal(t, "local", st.Source)
	assert.Equal(t, 1, st.Items)
}

func TestNew_UnknownModel(t *testing.T) {
	a := New(testConfig(t), logger.Discard())

	_, err := a.Quotes.Preview(context.Background(), quote.Request{Model: "CM780"})
	var notAvailable *templates.ModelNotAvailableError
	assert.ErrorAs(t, err, &notAvailable)
}
