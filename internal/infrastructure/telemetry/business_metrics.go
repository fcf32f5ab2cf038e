package telemetry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when an instrument set is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

// BusinessMetrics counts what the office does: invoices issued, deeds
// recorded, documents stored and assistant tokens spent. A nil
// *BusinessMetrics records nothing.
type BusinessMetrics struct {
	invoicesIssued  *Counter
	invoicedCents   *Counter
	deedsRecorded   *Counter
	documentsStored *Counter
	assistantTokens *Counter
	licenseChecks   *Counter
}

// NewBusinessMetrics registers the business instruments on meter.
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	bm := &BusinessMetrics{}
	var err error
	if bm.invoicesIssued, err = NewCounter(meter, "notaris_invoice_issued_total", "Invoices issued", "{invoices}"); err != nil {
		return nil, err
	}
	if bm.invoicedCents, err = NewCounter(meter, "notaris_invoice_gross_total", "Gross amount invoiced in euro cents", "{cents}"); err != nil {
		return nil, err
	}
	if bm.deedsRecorded, err = NewCounter(meter, "notaris_deed_recorded_total", "Deeds entered in the repertorium", "{deeds}"); err != nil {
		return nil, err
	}
	if bm.documentsStored, err = NewCounter(meter, "notaris_document_stored_total", "Documents uploaded to dossiers", "{documents}"); err != nil {
		return nil, err
	}
	if bm.assistantTokens, err = NewCounter(meter, "notaris_assistant_tokens_total", "Tokens used by the assistant", "{tokens}"); err != nil {
		return nil, err
	}
	if bm.licenseChecks, err = NewCounter(meter, "notaris_license_verification_total", "License verifications by outcome", "{checks}"); err != nil {
		return nil, err
	}
	return bm, nil
}

// InvoiceIssued counts an issued invoice and its gross amount.
func (bm *BusinessMetrics) InvoiceIssued(ctx context.Context, tenantID uuid.UUID, gross decimal.Decimal) {
	if bm == nil {
		return
	}
	tenant := AttrTenantID.String(tenantID.String())
	bm.invoicesIssued.Inc(ctx, tenant)
	bm.invoicedCents.Add(ctx, gross.Shift(2).Round(0).IntPart(), tenant)
}

// DeedRecorded counts a new repertorium entry.
func (bm *BusinessMetrics) DeedRecorded(ctx context.Context, tenantID uuid.UUID, deedType string) {
	if bm == nil {
		return
	}
	bm.deedsRecorded.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrDeedType.String(deedType))
}

// DocumentStored counts an upload.
func (bm *BusinessMetrics) DocumentStored(ctx context.Context, tenantID uuid.UUID) {
	if bm == nil {
		return
	}
	bm.documentsStored.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// AssistantTokens adds the prompt and completion tokens of one answer.
func (bm *BusinessMetrics) AssistantTokens(ctx context.Context, tenantID uuid.UUID, model string, prompt, completion int) {
	if bm == nil {
		return
	}
	tenant := AttrTenantID.String(tenantID.String())
	bm.assistantTokens.Add(ctx, int64(prompt), tenant, AttrModel.String(model), AttrTokenKind.String("prompt"))
	bm.assistantTokens.Add(ctx, int64(completion), tenant, AttrModel.String(model), AttrTokenKind.String("completion"))
}

// LicenseVerified counts a verification by outcome: ok, grace or failed.
func (bm *BusinessMetrics) LicenseVerified(ctx context.Context, outcome string) {
	if bm == nil {
		return
	}
	bm.licenseChecks.Inc(ctx, AttrOutcome.String(outcome))
}
