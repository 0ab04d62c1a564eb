package usecase

import (
	"time"

	"github.com/pcsite/backend/internal/domain"
)

// DateLayout is the calendar-day format used in price history
const DateLayout = "2006-01-02"

// PriceReconciler merges price observations into a catalog entry under the
// one-history-entry-per-calendar-day rule
type PriceReconciler struct {
	location *time.Location
	now      func() time.Time
}

// NewPriceReconciler creates a reconciler that resolves calendar days in loc.
// A nil location means UTC.
func NewPriceReconciler(loc *time.Location) *PriceReconciler {
	if loc == nil {
		loc = time.UTC
	}
	return &PriceReconciler{location: loc, now: time.Now}
}

// DateOf returns the calendar day of t in the reconciler's time zone
func (r *PriceReconciler) DateOf(t time.Time) string {
	return t.In(r.location).Format(DateLayout)
}

// Today returns the current calendar day
func (r *PriceReconciler) Today() string {
	return r.DateOf(r.now())
}

// Reconcile merges a price observed at asOf; see ReconcileOn
func (r *PriceReconciler) Reconcile(entry domain.CatalogEntry, price int64, asOf time.Time) (domain.CatalogEntry, *domain.PricePoint) {
	return r.ReconcileOn(entry, price, r.DateOf(asOf))
}

// ReconcileOn sets the entry's current price and appends (date, price) to its history
// unless the history already holds that date. The input entry is not modified.
// The returned point is the appended history entry, or nil for a same-day observation;
// callers persist both the price and the point in one store operation.
func (r *PriceReconciler) ReconcileOn(entry domain.CatalogEntry, price int64, date string) (domain.CatalogEntry, *domain.PricePoint) {
	updated := entry
	updated.Price = price

	history := make([]domain.PricePoint, len(entry.PriceHistory), len(entry.PriceHistory)+1)
	copy(history, entry.PriceHistory)
	updated.PriceHistory = history

	if updated.HasPriceOn(date) {
		return updated, nil
	}

	point := domain.PricePoint{Date: date, Price: price}
	updated.PriceHistory = append(updated.PriceHistory, point)
	return updated, &point
}
