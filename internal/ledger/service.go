// Package ledger holds the mutation and aggregation logic of the debt
// tracker. Mutations apply the leniency policy (malformed amounts coerce to
// zero, deletes of missing ids succeed) and aggregation always recomputes
// the full read model from storage.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/harindujayakody/debt-tracker/internal/core"
	"github.com/harindujayakody/debt-tracker/internal/storage"
)

// Service orchestrates ledger operations against the SQLite repository.
type Service struct {
	storage *storage.SQLiteRepository
}

func NewService(repo *storage.SQLiteRepository) *Service {
	return &Service{storage: repo}
}

// AddDebt records a new debt. The person name is required after trimming;
// the amount string is parsed leniently and clamped to >= 0. A zero at means
// "now".
func (s *Service) AddDebt(ctx context.Context, person, label, amount string, at time.Time) error {
	person = core.TrimPerson(person)
	if person == "" {
		return core.ErrEmptyPerson
	}
	if at.IsZero() {
		at = time.Now()
	}

	d := core.Debt{
		Person:    person,
		Label:     core.TrimPerson(label),
		Amount:    core.Money{Cents: core.ParseAmountCents(amount)},
		CreatedAt: at,
	}
	if _, err := s.storage.InsertDebt(ctx, d); err != nil {
		return fmt.Errorf("add debt: %w", err)
	}
	return nil
}

// AddDebtForPerson is the quick-add variant used from an existing person row.
// It shares AddDebt's semantics; only the argument order differs to match the
// inbound form.
func (s *Service) AddDebtForPerson(ctx context.Context, person, amount, label string) error {
	return s.AddDebt(ctx, person, label, amount, time.Time{})
}

// DeleteDebt removes a debt by id. Deleting a non-existent id is a no-op.
func (s *Service) DeleteDebt(ctx context.Context, id int64) error {
	if err := s.storage.DeleteDebt(ctx, id); err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	return nil
}

// AddPayment records a repayment for a person. paidAt accepts a YYYY-MM-DD
// date and defaults to today when absent or malformed.
func (s *Service) AddPayment(ctx context.Context, person, amount, paidAt, note string) error {
	person = core.TrimPerson(person)
	if person == "" {
		return core.ErrEmptyPerson
	}

	p := core.Payment{
		Person: person,
		Amount: core.Money{Cents: core.ParseAmountCents(amount)},
		PaidAt: core.NormalizeDate(paidAt),
		Note:   core.TrimPerson(note),
	}
	if _, err := s.storage.InsertPayment(ctx, p); err != nil {
		return fmt.Errorf("add payment: %w", err)
	}
	return nil
}

// DeletePayment removes a payment by id. Deleting a non-existent id is a
// no-op.
func (s *Service) DeletePayment(ctx context.Context, id int64) error {
	if err := s.storage.DeletePayment(ctx, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}

// RenamePerson moves every debt and payment from oldName to newName in one
// transaction. It is a silent no-op unless both names are non-empty after
// trimming and differ. If newName already has records the two groups merge
// under the new name, which is the only meaningful outcome of string-keyed
// grouping.
func (s *Service) RenamePerson(ctx context.Context, oldName, newName string) error {
	oldName = core.TrimPerson(oldName)
	newName = core.TrimPerson(newName)
	if oldName == "" || newName == "" || oldName == newName {
		slog.DebugContext(ctx, "Rename skipped", "old", oldName, "new", newName)
		return nil
	}
	if err := s.storage.RenamePerson(ctx, oldName, newName); err != nil {
		return fmt.Errorf("rename person: %w", err)
	}
	return nil
}

// Debts returns all debts, newest first.
func (s *Service) Debts(ctx context.Context) ([]core.Debt, error) {
	return s.storage.ListDebts(ctx)
}

// Payments returns all payments, most recent first.
func (s *Service) Payments(ctx context.Context) ([]core.Payment, error) {
	return s.storage.ListPayments(ctx)
}

// Overview recomputes the full read model from the current storage contents.
// Storage errors propagate unchanged; the caller must not render a dashboard
// from a partial read.
func (s *Service) Overview(ctx context.Context) (core.Overview, error) {
	var ov core.Overview

	debtSums, err := s.storage.DebtSumsByPerson(ctx)
	if err != nil {
		return ov, fmt.Errorf("overview: %w", err)
	}
	paySums, err := s.storage.PaymentSumsByPerson(ctx)
	if err != nil {
		return ov, fmt.Errorf("overview: %w", err)
	}

	// Known people are the union of distinct names across both tables; a
	// person with only payments still shows up, with owed = 0.
	owed := make(map[string]core.Money, len(debtSums))
	paid := make(map[string]core.Money, len(paySums))
	for _, ds := range debtSums {
		owed[ds.Person] = ds.Total
	}
	for _, ps := range paySums {
		paid[ps.Person] = ps.Total
	}

	people := make([]string, 0, len(owed)+len(paid))
	for p := range owed {
		people = append(people, p)
	}
	for p := range paid {
		if _, ok := owed[p]; !ok {
			people = append(people, p)
		}
	}
	// Deterministic display order; the underlying query order is not part of
	// the contract.
	sort.Strings(people)

	for _, p := range people {
		row := core.PersonBalance{
			Person:    p,
			Owed:      owed[p],
			Paid:      paid[p],
			Remaining: owed[p].Sub(paid[p]).Clamp(),
		}
		row.PercentPaid = core.RoundPercent(row.Paid, row.Owed)

		ov.TotalDebt = ov.TotalDebt.Add(row.Owed)
		ov.TotalPaid = ov.TotalPaid.Add(row.Paid)
		ov.TotalRemaining = ov.TotalRemaining.Add(row.Remaining)
		ov.People = append(ov.People, row)
		if row.Remaining.Cents > 0 {
			ov.Outstanding = append(ov.Outstanding, row)
		}
	}

	ov.PaidPercent = core.RoundPercent(ov.TotalPaid, ov.TotalDebt)
	// Derived, not independently computed, so the pair always sums to 100
	// even when TotalRemaining's non-offsetting sum says otherwise.
	ov.RemainingPercent = 100 - ov.PaidPercent

	ov.Timeline, err = s.storage.MonthlyPaymentTotals(ctx)
	if err != nil {
		return core.Overview{}, fmt.Errorf("overview: %w", err)
	}

	return ov, nil
}
