package store

import "time"

// DefaultProposalData is the blank proposal a template starts from when no
// editing session is being resumed.
func DefaultProposalData() ProposalData {
	return ProposalData{
		Date:         time.Now().Format("2006-01-02"),
		SpecSections: []ItemGroup{{Title: "", Items: []string{""}}},
		BasePackage:  ItemGroup{Title: "חבילת בסיס", Items: []string{""}},
		AddOns:       []ItemGroup{{Title: "", Items: []string{""}}},
		PricingRows:  []PricingRow{{Plan: "", SetupCost: 0, MonthlyCost: nil, Notes: ""}},
		Blockers:     []string{""},
		TaxNote:      "המחירים אינם כוללים מע״מ",
	}
}

// DefaultQuoteData is the blank agreement a template starts from. The 30/40/30
// milestone split is a starting point, not an enforced invariant.
func DefaultQuoteData() QuoteData {
	return QuoteData{
		Date:                  time.Now().Format("2006-01-02"),
		PaymentModel:          PaymentFixed,
		AdvancePaymentPercent: 30,
		BetaPaymentPercent:    40,
		FinalPaymentPercent:   30,
		WarrantyDays:          30,
		TimelineDays:          30,
		CancellationTerms:     "במקרה של ביטול ביוזמת הלקוח, המקדמה לא תוחזר והלקוח ישלם עבור שעות העבודה שבוצעו בפועל.",
		ClientObligations:     "הלקוח מתחייב להעמיד לרשות הספק את כל המידע והגישות הנדרשים תוך 7 ימים.",
		BrowserSupport:        "Chrome, Safari, Edge (גרסאות אחרונות)",
		Exclusions:            "הזנת תכנים, עיצוב גרפי של מותג, רכישת דומיינים.",
	}
}

// AgreementPreset carries the per-variant boilerplate rendered into the
// agreement document around the user-edited fields.
type AgreementPreset struct {
	Subtitle        string
	Section1Title   string
	Section1Content string
	Section2Title   string
	Section5Content string
}

var agreementPresets = map[Variant]AgreementPreset{
	VariantCRM: {
		Subtitle:        "לאספקת שירותי פיתוח ותחזוקת תוכנה",
		Section1Title:   "מהות השירות",
		Section1Content: "הספק יפתח עבור הלקוח מערכת CRM/אפליקציה (להלן: \"המערכת\") המבוססת על טכנולוגיית ענן ושירותי צד ג', בהתאם למסמך האפיון המפורט המצורף כנספח ב'.",
		Section2Title:   "שלב ההקמה (Development Phase)",
		Section5Content: "קוד המקור של המערכת. הספק מוותר על כל זכות קניינית במערכת לאחר מסירתה הסופית וקבלת התשלום, למעט שימוש בספריות קוד פתוח או רכיבי מדף קיימים.",
	},
	VariantAutomation: {
		Subtitle:        "לאספקת שירותי אוטומציה ואינטגרציה",
		Section1Title:   "מהות השירות",
		Section1Content: "הספק יקים עבור הלקוח מערכת אוטומציה ואינטגרציה (להלן: \"המערכת\") המבוססת על פלטפורמות ענן (כגון Make.com, Zapier וכיוצא בזה) ושירותי צד ג', בהתאם למסמך האפיון המפורט המצורף כנספח ב'.",
		Section2Title:   "שלב ההקמה (Integration Phase)",
		Section5Content: "הלוגיקה, התסריטים והסצנריונים של המערכת. הספק מוותר על כל זכות קניינית במערכת לאחר מסירתה הסופית וקבלת התשלום, למעט שימוש בשירותי מדף או רכיבים קיימים.",
	},
}

// PresetFor returns the boilerplate for a variant, defaulting to CRM for
// anything unrecognized.
func PresetFor(variant Variant) AgreementPreset {
	if preset, ok := agreementPresets[variant]; ok {
		return preset
	}
	return agreementPresets[VariantCRM]
}
