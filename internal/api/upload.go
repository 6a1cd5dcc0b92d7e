package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Field is a plain multipart form value.
type Field struct {
	Name  string
	Value string
}

// File is a multipart file part.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// Form is a multipart/form-data request body.
type Form struct {
	Fields []Field
	Files  []File
}

func (f Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, file := range f.Files {
		if file.Content == nil {
			return nil, "", fmt.Errorf("file %q has no content", file.Filename)
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(file.Field), escapeQuotes(file.Filename)))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", err
		}
	}
	for _, field := range f.Fields {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
