package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeDocx builds a minimal .docx archive whose body holds the given
// paragraphs.
func writeDocx(t *testing.T, path string, paragraphs ...string) {
	t.Helper()

	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create(documentXMLName)
	require.NoError(t, err)
	_, err = f.Write(body.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestExtract_Docx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contract.docx")
	writeDocx(t, path, "CONTRATO DE PRESTAÇÃO DE SERVIÇOS", "Cláusula 1: o prazo é de 30 dias.")

	text, err := NewExtractor().Extract(path)
	require.NoError(t, err)

	assert.Equal(t, "CONTRATO DE PRESTAÇÃO DE SERVIÇOS\nCláusula 1: o prazo é de 30 dias.", text)
}

func TestExtract_SkipsBlankParagraphs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.docx")
	writeDocx(t, path, "First", "   ", "", "Second")

	text, err := NewExtractor().Extract(path)
	require.NoError(t, err)

	assert.Equal(t, "First\nSecond", text)
}

func TestExtract_AllBlankParagraphsFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.docx")
	writeDocx(t, path, "   ", "\t", "")

	text, err := NewExtractor().Extract(path)
	assert.Empty(t, text)

	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Contains(t, xerr.Error(), "no extractable text")
}

func TestExtract_CorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip archive"), 0644))

	_, err := NewExtractor().Extract(path)

	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, path, xerr.Path)
}

func TestExtract_MissingDocumentXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<w:styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	_, err = NewExtractor().Extract(path)

	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Contains(t, err.Error(), documentXMLName)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0644))

	_, err := NewExtractor().Extract(path)

	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Contains(t, err.Error(), "unsupported document format")
}

func TestExtract_HTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.html")
	html := `<html><head><script>ignored()</script></head><body>
<p>Primeira cláusula.</p>
<p>Segunda cláusula.</p>
</body></html>`
	require.NoError(t, os.WriteFile(path, []byte(html), 0644))

	text, err := NewExtractor().Extract(path)
	require.NoError(t, err)

	assert.Contains(t, text, "Primeira cláusula.")
	assert.Contains(t, text, "Segunda cláusula.")
	assert.NotContains(t, text, "ignored")
}

func TestExtract_NonexistentFile(t *testing.T) {
	_, err := NewExtractor().Extract(filepath.Join(t.TempDir(), "missing.docx"))

	var xerr *Error
	require.ErrorAs(t, err, &xerr)
}
