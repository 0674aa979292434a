package services

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// ExtractDocxText reads the main document part of a docx archive and returns
// its visible text. A docx is a zip of XML; the text lives in character data
// under word/document.xml, with w:p marking paragraphs and w:tab/w:br spacing.
func ExtractDocxText(filePath string) (string, error) {
	archive, err := zip.OpenReader(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open document archive: %w", err)
	}
	defer archive.Close()

	var document *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			document = f
			break
		}
	}
	if document == nil {
		return "", fmt.Errorf("document archive has no word/document.xml part")
	}

	reader, err := document.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document part: %w", err)
	}
	defer reader.Close()

	text, err := decodeDocumentXML(reader)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content found in document")
	}
	return text, nil
}

func decodeDocumentXML(reader io.Reader) (string, error) {
	decoder := xml.NewDecoder(reader)
	var builder strings.Builder

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document XML: %w", err)
		}

		switch t := token.(type) {
		case xml.CharData:
			builder.Write(t)
		case xml.StartElement:
			switch t.Name.Local {
			case "tab":
				builder.WriteString(" ")
			case "br":
				builder.WriteString("\n")
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				builder.WriteString("\n")
			}
		}
	}

	return builder.String(), nil
}
