package store

import "time"

// DocKind selects the target collection for a document.
type DocKind string

const (
	KindProposal  DocKind = "proposal"
	KindAgreement DocKind = "agreement"
)

func (k DocKind) Valid() bool {
	return k == KindProposal || k == KindAgreement
}

// Variant selects which template and preset content applies. Orthogonal to
// DocKind and immutable once a document is created.
type Variant string

const (
	VariantCRM        Variant = "crm"
	VariantAutomation Variant = "automation"
)

func (v Variant) Valid() bool {
	return v == VariantCRM || v == VariantAutomation
}

// Record is a stored document with its envelope. Payload holds the
// user-edited content only; envelope fields live alongside it on the wire
// but are stripped out on read.
type Record struct {
	ID        string
	OwnerID   string
	Kind      DocKind
	Variant   Variant
	CreatedAt time.Time
	UpdatedAt time.Time
	Payload   map[string]any
}

type User struct {
	ID           string
	DisplayName  string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// ItemGroup is a titled list of free-text items (spec sections, the base
// package, add-on packages).
type ItemGroup struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// PricingRow is one line of the proposal pricing table. MonthlyCost is
// nullable: null means "not applicable", not zero.
type PricingRow struct {
	Plan        string   `json:"plan"`
	SetupCost   float64  `json:"setupCost"`
	MonthlyCost *float64 `json:"monthlyCost"`
	Notes       string   `json:"notes"`
}

// ProposalData is the typed shape of a price-quote payload.
type ProposalData struct {
	Date         string       `json:"date"`
	Recipient    string       `json:"recipient"`
	Sender       string       `json:"sender"`
	Subject      string       `json:"subject"`
	Intro        string       `json:"intro"`
	SpecSections []ItemGroup  `json:"specSections"`
	BasePackage  ItemGroup    `json:"basePackage"`
	AddOns       []ItemGroup  `json:"addOns"`
	PricingRows  []PricingRow `json:"pricingRows"`
	Blockers     []string     `json:"blockers"`
	TaxNote      string       `json:"taxNote"`
}

// PaymentModel discriminates how an agreement is priced.
type PaymentModel string

const (
	PaymentFixed  PaymentModel = "fixed"
	PaymentHourly PaymentModel = "hourly"
)

// QuoteData is the typed shape of a service-agreement payload.
type QuoteData struct {
	Date          string `json:"date"`
	ClientName    string `json:"clientName"`
	ClientID      string `json:"clientId"`
	DeveloperName string `json:"developerName"`
	DeveloperID   string `json:"developerId"`

	PaymentModel PaymentModel `json:"paymentModel"`

	// Fixed price: milestone split percentages are advisory only and are not
	// forced to sum to 100.
	FixedPriceAmount      float64 `json:"fixedPriceAmount"`
	AdvancePaymentPercent float64 `json:"advancePaymentPercent"`
	BetaPaymentPercent    float64 `json:"betaPaymentPercent"`
	FinalPaymentPercent   float64 `json:"finalPaymentPercent"`

	// Hourly
	HourlyRate     float64 `json:"hourlyRate"`
	EstimatedHours float64 `json:"estimatedHours"`

	// Maintenance and support
	MonthlyRetainerAmount float64 `json:"monthlyRetainerAmount"`
	SupportHourlyRate     float64 `json:"supportHourlyRate"`
	WarrantyDays          int     `json:"warrantyDays"`

	// Advanced terms
	TimelineDays      int    `json:"timelineDays"`
	CancellationTerms string `json:"cancellationTerms"`
	ClientObligations string `json:"clientObligations"`
	BrowserSupport    string `json:"browserSupport"`
	Exclusions        string `json:"exclusions"`
}
