package templates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestNormalizeModel(t *testing.T) {
	assert.Equal(t, "CM780", NormalizeModel(" cm780.DOCX "))
	assert.Equal(t, "CM900A", NormalizeModel("CM 900a"))
	assert.Equal(t, "", NormalizeModel("   "))
}

func TestResolver_ListAndResolve(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "CM780.docx")
	touch(t, dir, "CM1100.docx")
	touch(t, dir, "TS2000.docx")
	touch(t, dir, "COTIZACION MATERIALS.docx")
	touch(t, dir, "Detector de Metales MDM4121.docx")
	touch(t, dir, "notes.txt")

	r := NewResolver(dir)

	assert.Equal(t, []string{"CM1100", "CM780", "TS2000"}, r.List(0))
	assert.Equal(t, []string{"CM1100", "CM780"}, r.List(2))

	path, err := r.Resolve("cm780.docx")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "CM780.docx"), path)

	path, err = r.ResolveFile(MaterialsTemplate)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "COTIZACION MATERIALS.docx"), path)
}

func TestResolver_NotAvailable(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "CM430.docx")

	r := NewResolver(dir)

	_, err := r.Resolve("CM999")
	var notAvailable *ModelNotAvailableError
	require.True(t, errors.As(err, &notAvailable))
	assert.Equal(t, "CM999", notAvailable.Model)
	assert.Equal(t, "Modelo/plantilla no disponible: CM999. Disponibles: CM430", err.Error())

	_, err = r.Resolve("  ")
	assert.ErrorIs(t, err, ErrModelRequired)
}
