// Package resume loads and validates the resume file attached to an
// application.
package resume

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/entrhq/autoapply/pkg/dom"
)

// MaxSize bounds the resume payload. Application platforms commonly
// reject uploads above a few megabytes; 10MB is a safe ceiling.
const MaxSize = 10 << 20

const pdfMIME = "application/pdf"

// File is a resume payload ready for upload.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Read loads a resume from disk and sniffs its MIME type, preferring
// the extension mapping over content detection.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resume: %w", err)
	}

	name := filepath.Base(path)
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	// TypeByExtension may append a charset parameter; uploads want the
	// bare media type.
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	return &File{Name: name, MIME: mimeType, Data: data}, nil
}

// Validate checks the payload before it is offered for upload. PDFs go
// through a relaxed structural validation and report their page count;
// other formats pass with only the size guard.
func (f *File) Validate() (pages int, err error) {
	if len(f.Data) == 0 {
		return 0, fmt.Errorf("resume %q is empty", f.Name)
	}
	if len(f.Data) > MaxSize {
		return 0, fmt.Errorf("resume %q exceeds %d bytes", f.Name, MaxSize)
	}
	if f.MIME != pdfMIME {
		return 0, nil
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.Validate(bytes.NewReader(f.Data), conf); err != nil {
		return 0, fmt.Errorf("validate pdf %q: %w", f.Name, err)
	}
	pages, err = api.PageCount(bytes.NewReader(f.Data), conf)
	if err != nil {
		return 0, fmt.Errorf("page count %q: %w", f.Name, err)
	}
	return pages, nil
}

// Upload converts the file into the injector's upload payload.
func (f *File) Upload() dom.FileUpload {
	return dom.FileUpload{Name: f.Name, MIME: f.MIME, Data: f.Data}
}
