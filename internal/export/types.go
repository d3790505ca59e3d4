// Package export renders saved documents to printable HTML and PDF.
package export

import "errors"

// Mode selects how the final artifact is produced.
type Mode string

const (
	// ModeScripted drives headless Chromium to print the rendered HTML.
	ModeScripted Mode = "scripted"
	// ModeNative returns the rendered HTML for the client's own print flow.
	ModeNative Mode = "native"
)

// Result is the finished artifact.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates Chromium is not installed.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrUnsupportedMode indicates an unrecognized export mode.
	ErrUnsupportedMode = errors.New("unsupported export mode")
)
