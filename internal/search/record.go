package search

import "quotedesk/api/internal/store"

// RecordFor projects a saved record into its searchable shape. Proposals
// name their client in "recipient", agreements in "clientName".
func RecordFor(r store.Record) DocumentRecord {
	doc := DocumentRecord{
		ID:      r.ID,
		OwnerID: r.OwnerID,
		Kind:    string(r.Kind),
		Variant: string(r.Variant),
	}
	if r.Kind == store.KindProposal {
		doc.ClientName, _ = r.Payload["recipient"].(string)
		doc.Subject, _ = r.Payload["subject"].(string)
	} else {
		doc.ClientName, _ = r.Payload["clientName"].(string)
	}
	doc.Date, _ = r.Payload["date"].(string)
	return doc
}
