// Package extract pulls plain text out of teacher-uploaded reference documents.
package extract

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/pavelanni/homework/internal/model"
)

// MaxUpload is the largest document accepted, in bytes.
const MaxUpload = 10 << 20

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Text returns the plain text of data. Supported: plain text / markdown, PDF
// and Word .docx. Other formats fail with model.ErrFileReadFailed.
func Text(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", model.ErrFileReadFailed, name)
	}
	if len(data) > MaxUpload {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", model.ErrFileReadFailed, name, MaxUpload)
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is(docxMIME):
		text, err := docxText(data)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", model.ErrFileReadFailed, name, err)
		}
		return text, nil
	case mt.Is("application/pdf"):
		text, err := pdfText(data)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", model.ErrFileReadFailed, name, err)
		}
		if text == "" {
			return "", fmt.Errorf("%w: %s has no extractable text", model.ErrFileReadFailed, name)
		}
		return text, nil
	case mt.Is("text/plain") || strings.HasPrefix(mt.String(), "text/"):
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not UTF-8 text", model.ErrFileReadFailed, name)
		}
		return strings.TrimSpace(string(data)), nil
	default:
		return "", fmt.Errorf("%w: %s has unsupported type %s", model.ErrFileReadFailed, name, mt.String())
	}
}

// pdfText concatenates the text of every page. The parser panics on some
// malformed files, so that is turned into an error.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	b, err := io.ReadAll(io.LimitReader(plain, 4*MaxUpload))
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// docxText reads paragraph text from the document body.
func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer doc.Close()
	return wordXMLText(strings.NewReader(doc.Editable().GetContent()))
}

func wordXMLText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		sb     strings.Builder
		para   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if line := strings.TrimSpace(para.String()); line != "" {
					sb.WriteString(line)
					sb.WriteByte('\n')
				}
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
