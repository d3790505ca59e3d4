package app

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"quotedesk/api/internal/payload"
	"quotedesk/api/internal/store"
)

// defaultPayload returns the blank document for a kind as a wire map.
func defaultPayload(kind store.DocKind) (map[string]any, error) {
	switch kind {
	case store.KindProposal:
		return payload.ToMap(store.DefaultProposalData())
	case store.KindAgreement:
		return payload.ToMap(store.DefaultQuoteData())
	default:
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}
}

// adviseOnPayload runs advisory checks over a document before saving.
// Findings become warnings on the save outcome; they never block the write.
// Drafts are saved in whatever state the user left them.
func adviseOnPayload(kind store.DocKind, data map[string]any) []string {
	var warnings []string

	switch kind {
	case store.KindProposal:
		var doc store.ProposalData
		if err := payload.FromMap(data, &doc); err != nil {
			return []string{"document fields could not be checked"}
		}
		err := validation.ValidateStruct(&doc,
			validation.Field(&doc.Recipient, validation.Required.Error("recipient is empty")),
			validation.Field(&doc.Subject, validation.Required.Error("subject is empty")),
		)
		warnings = append(warnings, validationWarnings(err)...)
		if len(doc.PricingRows) == 0 {
			warnings = append(warnings, "pricing table is empty")
		}
		for _, row := range doc.PricingRows {
			if row.SetupCost < 0 || (row.MonthlyCost != nil && *row.MonthlyCost < 0) {
				warnings = append(warnings, fmt.Sprintf("negative cost in pricing row %q", row.Plan))
			}
		}

	case store.KindAgreement:
		var doc store.QuoteData
		if err := payload.FromMap(data, &doc); err != nil {
			return []string{"document fields could not be checked"}
		}
		err := validation.ValidateStruct(&doc,
			validation.Field(&doc.ClientName, validation.Required.Error("client name is empty")),
			validation.Field(&doc.PaymentModel, validation.In(store.PaymentFixed, store.PaymentHourly).Error("payment model is neither fixed nor hourly")),
			validation.Field(&doc.FixedPriceAmount, validation.Min(0.0).Error("fixed price is negative")),
			validation.Field(&doc.HourlyRate, validation.Min(0.0).Error("hourly rate is negative")),
			validation.Field(&doc.MonthlyRetainerAmount, validation.Min(0.0).Error("monthly retainer is negative")),
			validation.Field(&doc.SupportHourlyRate, validation.Min(0.0).Error("support rate is negative")),
		)
		warnings = append(warnings, validationWarnings(err)...)
		if doc.PaymentModel == store.PaymentFixed {
			split := doc.AdvancePaymentPercent + doc.BetaPaymentPercent + doc.FinalPaymentPercent
			if split != 100 {
				warnings = append(warnings, fmt.Sprintf("milestone percentages sum to %.0f, not 100", split))
			}
		}
		if doc.PaymentModel == store.PaymentHourly && doc.HourlyRate == 0 {
			warnings = append(warnings, "hourly model without an hourly rate")
		}
	}

	return warnings
}

func validationWarnings(err error) []string {
	if err == nil {
		return nil
	}
	errs, ok := err.(validation.Errors)
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		out = append(out, fieldErr.Error())
	}
	return out
}
