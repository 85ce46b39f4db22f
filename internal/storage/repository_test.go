package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harindujayakody/debt-tracker/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteRepository failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestDebtRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.InsertDebt(ctx, core.Debt{
		Person:    "Asha",
		Label:     "Loan",
		Amount:    core.Money{Cents: 9000000},
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("InsertDebt failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a generated id")
	}

	debts, err := repo.ListDebts(ctx)
	if err != nil {
		t.Fatalf("ListDebts failed: %v", err)
	}
	if len(debts) != 1 {
		t.Fatalf("expected 1 debt, got %d", len(debts))
	}
	d := debts[0]
	if d.Person != "Asha" || d.Label != "Loan" || d.Amount.Cents != 9000000 {
		t.Errorf("unexpected debt row: %+v", d)
	}
	if d.CreatedAt.IsZero() {
		t.Error("expected created_at to be stored")
	}
}

func TestListDebtsOrder(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, person := range []string{"first", "second", "third"} {
		_, err := repo.InsertDebt(ctx, core.Debt{
			Person:    person,
			Amount:    core.Money{Cents: 100},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("InsertDebt failed: %v", err)
		}
	}

	debts, err := repo.ListDebts(ctx)
	if err != nil {
		t.Fatalf("ListDebts failed: %v", err)
	}
	// Newest first.
	want := []string{"third", "second", "first"}
	for i, w := range want {
		if debts[i].Person != w {
			t.Errorf("position %d: got %q, want %q", i, debts[i].Person, w)
		}
	}
}

func TestDeleteDebtMissingIDIsNoop(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.DeleteDebt(ctx, 12345); err != nil {
		t.Fatalf("deleting a missing id must succeed, got: %v", err)
	}
}

func TestPaymentRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.InsertPayment(ctx, core.Payment{
		Person: "Asha",
		Amount: core.Money{Cents: 1500000},
		PaidAt: "2024-03-15",
		Note:   "first installment",
	})
	if err != nil {
		t.Fatalf("InsertPayment failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a generated id")
	}

	payments, err := repo.ListPayments(ctx)
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(payments))
	}
	p := payments[0]
	if p.Person != "Asha" || p.Amount.Cents != 1500000 || p.PaidAt != "2024-03-15" || p.Note != "first installment" {
		t.Errorf("unexpected payment row: %+v", p)
	}

	if err := repo.DeletePayment(ctx, id); err != nil {
		t.Fatalf("DeletePayment failed: %v", err)
	}
	payments, err = repo.ListPayments(ctx)
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	if len(payments) != 0 {
		t.Fatalf("expected payment to be gone, got %d rows", len(payments))
	}
}

func TestRenamePersonRewritesBothTables(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.InsertDebt(ctx, core.Debt{Person: "Asha", Amount: core.Money{Cents: 100}, CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.InsertPayment(ctx, core.Payment{Person: "Asha", Amount: core.Money{Cents: 50}, PaidAt: "2024-03-01"}); err != nil {
		t.Fatal(err)
	}

	if err := repo.RenamePerson(ctx, "Asha", "Asha K"); err != nil {
		t.Fatalf("RenamePerson failed: %v", err)
	}

	debts, _ := repo.ListDebts(ctx)
	payments, _ := repo.ListPayments(ctx)
	if debts[0].Person != "Asha K" {
		t.Errorf("debt still under old name: %q", debts[0].Person)
	}
	if payments[0].Person != "Asha K" {
		t.Errorf("payment still under old name: %q", payments[0].Person)
	}
}

func TestSumsByPerson(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, d := range []core.Debt{
		{Person: "Asha", Amount: core.Money{Cents: 100}},
		{Person: "Asha", Amount: core.Money{Cents: 200}},
		{Person: "Bimal", Amount: core.Money{Cents: 50}},
	} {
		d.CreatedAt = time.Now()
		if _, err := repo.InsertDebt(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	sums, err := repo.DebtSumsByPerson(ctx)
	if err != nil {
		t.Fatalf("DebtSumsByPerson failed: %v", err)
	}
	got := make(map[string]int64)
	for _, s := range sums {
		got[s.Person] = s.Total.Cents
	}
	if got["Asha"] != 300 || got["Bimal"] != 50 {
		t.Errorf("unexpected sums: %v", got)
	}
}

func TestMonthlyPaymentTotals(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, p := range []core.Payment{
		{Person: "a", Amount: core.Money{Cents: 100}, PaidAt: "2024-03-01"},
		{Person: "a", Amount: core.Money{Cents: 250}, PaidAt: "2024-03-20"},
		{Person: "b", Amount: core.Money{Cents: 400}, PaidAt: "2024-01-05"},
	} {
		if _, err := repo.InsertPayment(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	totals, err := repo.MonthlyPaymentTotals(ctx)
	if err != nil {
		t.Fatalf("MonthlyPaymentTotals failed: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(totals))
	}
	// Ascending by month; same-month payments share a bucket.
	if totals[0].Month != "2024-01" || totals[0].Total.Cents != 400 {
		t.Errorf("bucket 0 = %+v", totals[0])
	}
	if totals[1].Month != "2024-03" || totals[1].Total.Cents != 350 {
		t.Errorf("bucket 1 = %+v", totals[1])
	}
}

func TestBackup(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.InsertDebt(ctx, core.Debt{Person: "Asha", Amount: core.Money{Cents: 100}, CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	backupPath := filepath.Join(t.TempDir(), "snap.db")
	if err := repo.Backup(ctx, backupPath); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	info, err := os.Stat(backupPath)
	if err != nil {
		t.Fatalf("backup file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("backup file is empty")
	}

	// The snapshot must open as a valid database with the data in it.
	snap, err := NewSQLiteRepository(backupPath)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer snap.Close()
	debts, err := snap.ListDebts(ctx)
	if err != nil {
		t.Fatalf("list from backup: %v", err)
	}
	if len(debts) != 1 {
		t.Errorf("expected 1 debt in backup, got %d", len(debts))
	}
}
