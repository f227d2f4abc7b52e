package main

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

const maxImageBytes = 2 * 1024 * 1024 // 2MB per image

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// readImageUpload parses a single-file multipart upload from the named
// form field, enforcing the size cap and sniffing the real content type
// rather than trusting the client header.
func (app *application) readImageUpload(w http.ResponseWriter, r *http.Request, field string) (multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+4096)

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing file field %q: %w", field, err)
	}

	if header.Size > maxImageBytes {
		file.Close()
		return nil, fmt.Errorf("image exceeds the %d byte limit", maxImageBytes)
	}

	if err := sniffImage(file); err != nil {
		file.Close()
		return nil, err
	}

	return file, nil
}

// sniffImage checks the magic bytes against the allow-list and rewinds
// the reader.
func sniffImage(file multipart.File) error {
	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return fmt.Errorf("read image header: %w", err)
	}

	contentType := http.DetectContentType(head[:n])
	if !allowedImageTypes[contentType] {
		return fmt.Errorf("unsupported image type %s", contentType)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload: %w", err)
	}
	return nil
}
