package port

import "context"

// FileStore is the remote file-store collaborator. Upload returns the
// public URL of the stored file.
type FileStore interface {
	Upload(ctx context.Context, filename string, content []byte, mimeType string) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// ReceiptInspector validates an attachment before it is uploaded:
// content-type sniffing against the allow list and a structural sanity
// check for PDFs. Returns the detected MIME type.
type ReceiptInspector interface {
	Inspect(filename string, content []byte) (string, error)
}
