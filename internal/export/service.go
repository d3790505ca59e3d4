package export

import (
	"context"
	"fmt"

	"quotedesk/api/internal/store"
)

// Service turns a saved record into a downloadable artifact.
type Service struct {
	mode Mode
}

func NewService(mode Mode) *Service {
	if mode == "" {
		mode = ModeScripted
	}
	return &Service{mode: mode}
}

// Export renders the record and produces the artifact for the configured
// mode. Native mode hands back the HTML so the client can drive its own
// print dialog.
func (s *Service) Export(ctx context.Context, record store.Record) (*Result, error) {
	html, err := RenderHTML(record)
	if err != nil {
		return nil, err
	}

	clientName, date := namingFields(record)
	filename := Filename(record.Kind, clientName, date)

	switch s.mode {
	case ModeScripted:
		data, err := printPDF(ctx, html)
		if err != nil {
			return nil, err
		}
		return &Result{Data: data, Filename: filename, MimeType: "application/pdf"}, nil
	case ModeNative:
		return &Result{
			Data:     []byte(html),
			Filename: filename[:len(filename)-len(".pdf")] + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, s.mode)
	}
}

// namingFields pulls the payload fields the filename is built from. The
// proposal names its recipient, the agreement its client.
func namingFields(record store.Record) (clientName, date string) {
	key := "clientName"
	if record.Kind == store.KindProposal {
		key = "recipient"
	}
	clientName, _ = record.Payload[key].(string)
	date, _ = record.Payload["date"].(string)
	return clientName, date
}
