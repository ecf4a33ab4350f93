package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"
)

// documentXMLName is the archive member holding the body text of a .docx file.
const documentXMLName = "word/document.xml"

// extractDocx reads the paragraphs of a Word document. A .docx file is a zip
// archive; the body lives in word/document.xml as a sequence of w:p elements
// whose text runs are w:t elements.
func extractDocx(path string) ([]string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, &Error{Path: path, Message: "cannot open document archive", Cause: err}
	}
	defer archive.Close()

	var doc *zip.File
	for _, f := range archive.File {
		if f.Name == documentXMLName {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, &Error{Path: path, Message: "archive has no " + documentXMLName}
	}

	r, err := doc.Open()
	if err != nil {
		return nil, &Error{Path: path, Message: "cannot open " + documentXMLName, Cause: err}
	}
	defer r.Close()

	paragraphs, err := decodeParagraphs(r)
	if err != nil {
		return nil, &Error{Path: path, Message: "malformed document XML", Cause: err}
	}
	return paragraphs, nil
}

// decodeParagraphs walks the document XML token stream collecting the text
// of each paragraph. Tabs and explicit line breaks inside a run become
// spaces so paragraph text stays single-line.
func decodeParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inPara     bool
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				current.Reset()
			case "t":
				inText = inPara
			case "tab", "br":
				if inPara {
					current.WriteByte(' ')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inPara {
					paragraphs = append(paragraphs, current.String())
				}
				inPara = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}
