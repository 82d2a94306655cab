package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the invoice lifecycle state machine:
// Draft -> Issued -> Paid, with Draft/Issued -> Cancelled.
// Paid and Cancelled are terminal; Paid is set by an external payment
// reconciliation path, never by this service.
type InvoiceStatus int

const (
	InvoiceStatusDraft InvoiceStatus = iota
	InvoiceStatusIssued
	InvoiceStatusPaid
	InvoiceStatusCancelled
)

func (s InvoiceStatus) String() string {
	switch s {
	case InvoiceStatusDraft:
		return "draft"
	case InvoiceStatusIssued:
		return "issued"
	case InvoiceStatusPaid:
		return "paid"
	case InvoiceStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// CanIssue reports whether an invoice in this state may be issued.
func (s InvoiceStatus) CanIssue() bool {
	return s == InvoiceStatusDraft
}

// CanCancel reports whether an invoice in this state may be cancelled.
// Cancelling an already cancelled invoice is allowed and idempotent.
func (s InvoiceStatus) CanCancel() bool {
	return s != InvoiceStatusPaid
}

// Invoice is a billing document aggregating one or more line items for a
// period, or a single ad-hoc charge. ProfileID is nil for unassigned
// invoices. Version backs optimistic concurrency on status transitions.
type Invoice struct {
	Base
	IssuedAt         time.Time       `json:"issued_at" db:"issued_at"`
	PeriodStart      time.Time       `json:"period_start" db:"period_start"`
	PeriodEnd        time.Time       `json:"period_end" db:"period_end"`
	ProfileID        *uuid.UUID      `json:"profile_id,omitempty" db:"profile_id"`
	Total            decimal.Decimal `json:"total" db:"total"`
	AppointmentCount int             `json:"appointment_count" db:"appointment_count"`
	Status           InvoiceStatus   `json:"status" db:"status"`
	Notes            *string         `json:"notes,omitempty" db:"notes"`
	Version          int             `json:"-" db:"version"`

	// Populated on hydrated reads.
	Profile *Profile      `json:"profile,omitempty" db:"-"`
	Items   []InvoiceItem `json:"items" db:"-"`
}

// InvoiceItem is one billed appointment within an invoice. Items are
// immutable after creation and are removed with their owning invoice.
type InvoiceItem struct {
	Base
	InvoiceID     uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	AppointmentID uuid.UUID       `json:"appointment_id" db:"appointment_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`

	Appointment *Appointment `json:"appointment,omitempty" db:"-"`
}

// GenerateInvoiceRequest asks for period-based invoice generation: every
// performed appointment inside the window is billed at the flat
// RatePerAppointment, regardless of kind.
type GenerateInvoiceRequest struct {
	PeriodStart        time.Time       `json:"period_start" binding:"required"`
	PeriodEnd          time.Time       `json:"period_end" binding:"required"`
	RatePerAppointment decimal.Decimal `json:"rate_per_appointment" binding:"required,gt=0"`
	ProfileID          *uuid.UUID      `json:"profile_id"`
	Notes              *string         `json:"notes"`
}

// CreateStandaloneInvoiceRequest asks for a single-charge invoice created
// directly. AppointmentID may be nil, producing a manual unlinked invoice
// with zero line items.
type CreateStandaloneInvoiceRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Date          time.Time       `json:"date" binding:"required"`
	ProfileID     *uuid.UUID      `json:"profile_id"`
	AppointmentID *uuid.UUID      `json:"appointment_id"`
	Notes         *string         `json:"notes"`
}
