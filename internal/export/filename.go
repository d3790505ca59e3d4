package export

import (
	"strings"
	"unicode"

	"quotedesk/api/internal/store"
)

// Filename follows the convention the documents have always carried:
// "<label>-<client-or-מסמך>-<date-or-ללא-תאריך>.pdf", with Hebrew labels
// per document kind.
func Filename(kind store.DocKind, clientName, date string) string {
	label := "מסמך"
	switch kind {
	case store.KindProposal:
		label = "הצעה"
	case store.KindAgreement:
		label = "הסכם"
	}

	name := sanitizeFilenamePart(clientName)
	if name == "" {
		name = "מסמך"
	}
	when := sanitizeFilenamePart(date)
	if when == "" {
		when = "ללא-תאריך"
	}

	return label + "-" + name + "-" + when + ".pdf"
}

// sanitizeFilenamePart keeps letters and digits from any script, collapses
// whitespace runs to a single hyphen and drops everything else.
func sanitizeFilenamePart(s string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !lastHyphen && b.Len() > 0 {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
