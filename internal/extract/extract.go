package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// FromBytes extracts plain text from an uploaded document payload. Supported
// formats: PDF (github.com/ledongthuc/pdf), DOCX (word/document.xml), and
// plain text. The format is sniffed from file extension and content.
func FromBytes(ctx context.Context, data []byte, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("empty file")
	}

	switch detectFormat(fileName, data) {
	case formatPDF:
		return extractPDF(data)
	case formatDOCX:
		return extractDOCX(data)
	case formatTXT:
		return extractTXT(data)
	default:
		return "", fmt.Errorf("unsupported file type: %s (PDF, DOCX, and TXT are supported)", filepath.Ext(fileName))
	}
}

type format int

const (
	formatUnknown format = iota
	formatPDF
	formatDOCX
	formatTXT
)

func detectFormat(fileName string, data []byte) format {
	// Content sniffing wins over extension; PDF and DOCX have stable magic
	// bytes (DOCX is a zip archive).
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return formatPDF
	}
	isZip := bytes.HasPrefix(data, []byte("PK\x03\x04"))

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return formatPDF
	case ".docx":
		if isZip {
			return formatDOCX
		}
		return formatUnknown
	case ".txt":
		return formatTXT
	}
	if isZip {
		return formatDOCX
	}
	if utf8.Valid(data) {
		return formatTXT
	}
	return formatUnknown
}

func extractTXT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("text file is not valid UTF-8")
	}
	return string(data), nil
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	return stripDocxXML(string(raw)), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
