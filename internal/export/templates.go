package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"quotedesk/api/internal/payload"
	"quotedesk/api/internal/store"
)

var funcMap = template.FuncMap{
	"nis": func(v float64) string {
		return "₪" + groupThousands(v)
	},
	"nisPtr": func(v *float64) string {
		if v == nil {
			return "-"
		}
		return "₪" + groupThousands(*v)
	},
	"percentOf": func(total, percent float64) float64 {
		return total * percent / 100
	},
	"nonEmpty": func(items []string) []string {
		out := make([]string, 0, len(items))
		for _, item := range items {
			if strings.TrimSpace(item) != "" {
				out = append(out, item)
			}
		}
		return out
	},
}

// groupThousands renders 12345.0 as "12,345".
func groupThousands(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

var (
	proposalTemplate  = template.Must(template.New("proposal").Funcs(funcMap).Parse(proposalHTML))
	agreementTemplate = template.Must(template.New("agreement").Funcs(funcMap).Parse(agreementHTML))
)

type agreementTemplateData struct {
	store.QuoteData
	Preset store.AgreementPreset
}

// RenderHTML produces the printable HTML for a record. Payload fields the
// document types do not know about are dropped by the JSON round trip.
func RenderHTML(record store.Record) (string, error) {
	var buf bytes.Buffer
	switch record.Kind {
	case store.KindProposal:
		var data store.ProposalData
		if err := payload.FromMap(record.Payload, &data); err != nil {
			return "", fmt.Errorf("decode proposal payload: %w", err)
		}
		if err := proposalTemplate.Execute(&buf, data); err != nil {
			return "", fmt.Errorf("render proposal: %w", err)
		}
	case store.KindAgreement:
		var data store.QuoteData
		if err := payload.FromMap(record.Payload, &data); err != nil {
			return "", fmt.Errorf("decode agreement payload: %w", err)
		}
		td := agreementTemplateData{QuoteData: data, Preset: store.PresetFor(record.Variant)}
		if err := agreementTemplate.Execute(&buf, td); err != nil {
			return "", fmt.Errorf("render agreement: %w", err)
		}
	default:
		return "", fmt.Errorf("unknown document kind %q", record.Kind)
	}
	return buf.String(), nil
}

const proposalHTML = `<!DOCTYPE html>
<html dir="rtl" lang="he">
<head>
  <meta charset="UTF-8">
  <title>הצעת מחיר</title>
  <style>
    body { font-family: "Arial Hebrew", Arial, sans-serif; line-height: 1.7; max-width: 800px; margin: 2rem auto; color: #1a1a1a; }
    h1 { border-bottom: 2px solid #1a1a1a; padding-bottom: 0.5rem; }
    h2 { margin-top: 1.5rem; }
    .meta { color: #555; font-size: 0.9em; margin-bottom: 1.5rem; }
    table { width: 100%; border-collapse: collapse; margin: 1rem 0; }
    th, td { border: 1px solid #ccc; padding: 0.5rem 0.75rem; text-align: right; }
    th { background: #f5f5f5; }
    ul { padding-right: 1.25rem; }
    .tax-note { color: #555; font-size: 0.85em; margin-top: 0.5rem; }
  </style>
</head>
<body>
  <h1>הצעת מחיר{{if .Subject}} — {{.Subject}}{{end}}</h1>
  <div class="meta">
    {{if .Date}}<div>תאריך: {{.Date}}</div>{{end}}
    {{if .Recipient}}<div>לכבוד: {{.Recipient}}</div>{{end}}
    {{if .Sender}}<div>מאת: {{.Sender}}</div>{{end}}
  </div>
  {{if .Intro}}<p>{{.Intro}}</p>{{end}}

  {{range .SpecSections}}{{if or .Title (nonEmpty .Items)}}
  <h2>{{.Title}}</h2>
  <ul>{{range nonEmpty .Items}}<li>{{.}}</li>{{end}}</ul>
  {{end}}{{end}}

  {{if or .BasePackage.Title (nonEmpty .BasePackage.Items)}}
  <h2>{{.BasePackage.Title}}</h2>
  <ul>{{range nonEmpty .BasePackage.Items}}<li>{{.}}</li>{{end}}</ul>
  {{end}}

  {{range .AddOns}}{{if or .Title (nonEmpty .Items)}}
  <h2>{{.Title}}</h2>
  <ul>{{range nonEmpty .Items}}<li>{{.}}</li>{{end}}</ul>
  {{end}}{{end}}

  {{if .PricingRows}}
  <h2>תמחור</h2>
  <table>
    <tr><th>מסלול</th><th>עלות הקמה</th><th>עלות חודשית</th><th>הערות</th></tr>
    {{range .PricingRows}}
    <tr><td>{{.Plan}}</td><td>{{nis .SetupCost}}</td><td>{{nisPtr .MonthlyCost}}</td><td>{{.Notes}}</td></tr>
    {{end}}
  </table>
  {{if .TaxNote}}<div class="tax-note">{{.TaxNote}}</div>{{end}}
  {{end}}

  {{if nonEmpty .Blockers}}
  <h2>חסמים ותלויות</h2>
  <ul>{{range nonEmpty .Blockers}}<li>{{.}}</li>{{end}}</ul>
  {{end}}
</body>
</html>`

const agreementHTML = `<!DOCTYPE html>
<html dir="rtl" lang="he">
<head>
  <meta charset="UTF-8">
  <title>הסכם התקשרות</title>
  <style>
    body { font-family: "Arial Hebrew", Arial, sans-serif; line-height: 1.7; max-width: 800px; margin: 2rem auto; color: #1a1a1a; }
    h1 { text-align: center; margin-bottom: 0.25rem; }
    .subtitle { text-align: center; color: #555; margin-bottom: 2rem; }
    h2 { margin-top: 1.5rem; border-bottom: 1px solid #ddd; padding-bottom: 0.25rem; }
    .parties { margin: 1.5rem 0; }
    table { width: 100%; border-collapse: collapse; margin: 1rem 0; }
    th, td { border: 1px solid #ccc; padding: 0.5rem 0.75rem; text-align: right; }
    th { background: #f5f5f5; }
    .signatures { display: flex; justify-content: space-between; margin-top: 3rem; }
    .signature { width: 40%; border-top: 1px solid #1a1a1a; padding-top: 0.5rem; text-align: center; }
  </style>
</head>
<body>
  <h1>הסכם התקשרות</h1>
  <div class="subtitle">{{.Preset.Subtitle}}</div>
  <div class="parties">
    {{if .Date}}<div>נחתם ביום {{.Date}}</div>{{end}}
    {{if .DeveloperName}}<div>בין: {{.DeveloperName}}{{if .DeveloperID}} (ע.מ/ח.פ {{.DeveloperID}}){{end}} (להלן: "הספק")</div>{{end}}
    {{if .ClientName}}<div>לבין: {{.ClientName}}{{if .ClientID}} (ע.מ/ח.פ {{.ClientID}}){{end}} (להלן: "הלקוח")</div>{{end}}
  </div>

  <h2>1. {{.Preset.Section1Title}}</h2>
  <p>{{.Preset.Section1Content}}</p>

  <h2>2. {{.Preset.Section2Title}}</h2>
  {{if .TimelineDays}}<p>משך שלב ההקמה: {{.TimelineDays}} ימי עבודה ממועד קבלת כלל החומרים מהלקוח.</p>{{end}}

  <h2>3. תמורה ותנאי תשלום</h2>
  {{if eq .PaymentModel "fixed"}}
  <p>התמורה הכוללת עבור שלב ההקמה: {{nis .FixedPriceAmount}} בתוספת מע"מ.</p>
  <table>
    <tr><th>אבן דרך</th><th>אחוז</th><th>סכום</th></tr>
    <tr><td>מקדמה בחתימת ההסכם</td><td>{{.AdvancePaymentPercent}}%</td><td>{{nis (percentOf .FixedPriceAmount .AdvancePaymentPercent)}}</td></tr>
    <tr><td>מסירת גרסת בטא</td><td>{{.BetaPaymentPercent}}%</td><td>{{nis (percentOf .FixedPriceAmount .BetaPaymentPercent)}}</td></tr>
    <tr><td>מסירה סופית</td><td>{{.FinalPaymentPercent}}%</td><td>{{nis (percentOf .FixedPriceAmount .FinalPaymentPercent)}}</td></tr>
  </table>
  {{else}}
  <p>התמורה תחושב לפי שעות עבודה בפועל, בתעריף של {{nis .HourlyRate}} לשעה בתוספת מע"מ.{{if .EstimatedHours}} היקף משוער: {{.EstimatedHours}} שעות.{{end}}</p>
  {{end}}
  {{if .MonthlyRetainerAmount}}<p>ריטיינר חודשי לתחזוקה שוטפת: {{nis .MonthlyRetainerAmount}} בתוספת מע"מ.</p>{{end}}
  {{if .SupportHourlyRate}}<p>תמיכה מעבר לריטיינר: {{nis .SupportHourlyRate}} לשעה.</p>{{end}}

  <h2>4. אחריות ותחזוקה</h2>
  {{if .WarrantyDays}}<p>הספק מעניק אחריות לתיקון תקלות למשך {{.WarrantyDays}} ימים ממסירת המערכת.</p>{{end}}
  {{if .BrowserSupport}}<p>תמיכה בדפדפנים: {{.BrowserSupport}}</p>{{end}}

  <h2>5. קניין רוחני</h2>
  <p>{{.Preset.Section5Content}}</p>

  <h2>6. התחייבויות הלקוח</h2>
  {{if .ClientObligations}}<p>{{.ClientObligations}}</p>{{end}}

  <h2>7. ביטול ההסכם</h2>
  {{if .CancellationTerms}}<p>{{.CancellationTerms}}</p>{{end}}

  {{if .Exclusions}}
  <h2>8. מחוץ לתכולת העבודה</h2>
  <p>{{.Exclusions}}</p>
  {{end}}

  <div class="signatures">
    <div class="signature">הספק</div>
    <div class="signature">הלקוח</div>
  </div>
</body>
</html>`
