package resume

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeResume(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestReadSniffsMIMEByExtension(t *testing.T) {
	path := writeResume(t, "cv.pdf", []byte("%PDF-1.4 not really"))

	f, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "cv.pdf", f.Name)
	assert.Equal(t, "application/pdf", f.MIME)
}

func TestReadFallsBackToContentDetection(t *testing.T) {
	path := writeResume(t, "resume", []byte("%PDF-1.4\n"))

	f, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", f.MIME)
}

func TestReadStripsCharsetParameter(t *testing.T) {
	path := writeResume(t, "cv.txt", []byte("plain text resume"))

	f, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", f.MIME)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Error(t, err)
}

func TestValidateNonPDFSizeGuard(t *testing.T) {
	f := &File{Name: "cv.docx", MIME: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Data: []byte("doc")}
	pages, err := f.Validate()
	require.NoError(t, err)
	assert.Zero(t, pages, "page count is a PDF-only concept")

	f.Data = nil
	_, err = f.Validate()
	assert.Error(t, err)

	f.Data = bytes.Repeat([]byte("x"), MaxSize+1)
	_, err = f.Validate()
	assert.Error(t, err)
}

func TestValidateRejectsCorruptPDF(t *testing.T) {
	f := &File{Name: "cv.pdf", MIME: "application/pdf", Data: []byte("%PDF-1.4 garbage")}
	_, err := f.Validate()
	assert.Error(t, err)
}

func TestUploadPayload(t *testing.T) {
	f := &File{Name: "cv.pdf", MIME: "application/pdf", Data: []byte("%PDF-")}
	up := f.Upload()
	assert.Equal(t, f.Name, up.Name)
	assert.Equal(t, f.MIME, up.MIME)
	assert.Equal(t, f.Data, up.Data)
}
