// Package reader extracts the largest readable plain-text representation of
// an uploaded menu file, regardless of container format. It never fails:
// anything unreadable comes back as an empty string, which callers treat as
// "no structure recoverable".
package reader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var log = logrus.WithField("module", "reader")

// ReadRaw returns the plain-text content of the file at path. The extension
// (or a declared content-type suffix) picks the container strategy; unknown
// extensions fall back to the delimited-text path.
func ReadRaw(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readSpreadsheet(path)
	case ".pdf":
		return readPDF(path)
	default:
		// .csv, .txt, legacy .xls and anything else
		return readDelimited(path)
	}
}

// readDelimited reads a delimited/plain text file, trying encodings in
// order: UTF-8 (with BOM handling), Windows-1255 for legacy Hebrew exports,
// then Latin-1 as a lossless last resort.
func readDelimited(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.WithField("path", path).WithError(err).Debug("file unreadable")
		return ""
	}

	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data)
	}

	for _, cm := range []*charmap.Charmap{charmap.Windows1255, charmap.ISO8859_1} {
		out, err := io.ReadAll(cm.NewDecoder().Reader(bytes.NewReader(data)))
		if err != nil {
			continue
		}
		return string(out)
	}
	return ""
}

// readSpreadsheet concatenates every populated cell of every sheet, row by
// row, comma-joined, with a marker line per sheet. Workbooks are opened in
// value-only mode; formulas come back as their cached results.
func readSpreadsheet(path string) string {
	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		log.WithField("path", path).WithError(err).Debug("spreadsheet unreadable")
		return ""
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("--- Sheet: %s ---\n", sheet))
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, cell := range row {
				if strings.TrimSpace(cell) != "" {
					cells = append(cells, cell)
				}
			}
			if len(cells) > 0 {
				sb.WriteString(strings.Join(cells, ","))
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

// readPDF extracts the text layer of every page, in order, joined by blank
// lines. Scanned PDFs with no text layer simply produce an empty string.
func readPDF(path string) (text string) {
	// The pdf package panics on some malformed files; a broken upload must
	// not take down the whole pipeline.
	defer func() {
		if r := recover(); r != nil {
			log.WithField("path", path).Warnf("pdf extraction panicked: %v", r)
			text = ""
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		log.WithField("path", path).WithError(err).Debug("pdf unreadable")
		return ""
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(content) != "" {
			pages = append(pages, content)
		}
	}
	return strings.Join(pages, "\n\n")
}
