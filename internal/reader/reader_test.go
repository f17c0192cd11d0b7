package reader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReadRawUTF8(t *testing.T) {
	path := writeFile(t, "menu.csv", []byte("שניצל עוף,סלט ירקות\nדג אפוי"))
	text := ReadRaw(path)
	assert.Contains(t, text, "שניצל עוף")
	assert.Contains(t, text, "דג אפוי")
}

func TestReadRawStripsBOM(t *testing.T) {
	path := writeFile(t, "menu.csv", append([]byte{0xEF, 0xBB, 0xBF}, []byte("שניצל")...))
	assert.Equal(t, "שניצל", ReadRaw(path))
}

func TestReadRawWindows1255(t *testing.T) {
	// Legacy exports arrive in the Windows Hebrew code page, not UTF-8.
	encoded, err := charmap.Windows1255.NewEncoder().Bytes([]byte("שניצל עוף"))
	require.NoError(t, err)

	path := writeFile(t, "legacy.csv", encoded)
	assert.Equal(t, "שניצל עוף", ReadRaw(path))
}

func TestReadRawSpreadsheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "יום ראשון"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "שניצל עוף"))

	path := filepath.Join(t.TempDir(), "menu.xlsx")
	require.NoError(t, f.SaveAs(path))

	text := ReadRaw(path)
	assert.Contains(t, text, "--- Sheet: "+sheet+" ---")
	assert.Contains(t, text, "שניצל עוף")
}

func TestReadRawFailuresReturnEmpty(t *testing.T) {
	assert.Equal(t, "", ReadRaw("/nonexistent/menu.txt"))
	assert.Equal(t, "", ReadRaw(writeFile(t, "broken.xlsx", []byte("not a zip archive"))))
}
