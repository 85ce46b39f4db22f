package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/harindujayakody/debt-tracker/internal/core"

	_ "modernc.org/sqlite"
)

// PersonSum is one row of a GROUP BY who query.
type PersonSum struct {
	Person string
	Total  core.Money
}

// SQLiteRepository owns the two ledger tables. There is no foreign key
// between payments and debts; rows are related by the who column only.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertDebt stores a new debt and returns its id.
func (r *SQLiteRepository) InsertDebt(ctx context.Context, d core.Debt) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO debts (who, label, amount_cents, created_at) VALUES (?, ?, ?, ?)`,
		d.Person, d.Label, d.Amount.Cents, d.CreatedAt.UTC().Format(time.DateTime))
	if err != nil {
		return 0, fmt.Errorf("insert debt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert debt id: %w", err)
	}

	slog.InfoContext(ctx, "Debt saved",
		"id", id,
		"person", d.Person,
		"amount_cents", d.Amount.Cents)
	return id, nil
}

// DeleteDebt removes a debt by id. A missing id deletes zero rows and is not
// an error.
func (r *SQLiteRepository) DeleteDebt(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	return nil
}

// InsertPayment stores a new payment and returns its id.
func (r *SQLiteRepository) InsertPayment(ctx context.Context, p core.Payment) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (who, amount_cents, paid_at, note) VALUES (?, ?, ?, ?)`,
		p.Person, p.Amount.Cents, p.PaidAt, p.Note)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert payment id: %w", err)
	}

	slog.InfoContext(ctx, "Payment saved",
		"id", id,
		"person", p.Person,
		"amount_cents", p.Amount.Cents,
		"paid_at", p.PaidAt)
	return id, nil
}

// DeletePayment removes a payment by id; missing ids are a no-op.
func (r *SQLiteRepository) DeletePayment(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}

// RenamePerson rewrites the who column across both tables in a single
// transaction, so a concurrent reader never observes a half-renamed person.
func (r *SQLiteRepository) RenamePerson(ctx context.Context, oldName, newName string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rename person: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `UPDATE debts SET who = ? WHERE who = ?`, newName, oldName); err != nil {
		return fmt.Errorf("rename person: update debts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE payments SET who = ? WHERE who = ?`, newName, oldName); err != nil {
		return fmt.Errorf("rename person: update payments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rename person: commit: %w", err)
	}

	slog.InfoContext(ctx, "Person renamed", "old", oldName, "new", newName)
	return nil
}

// ListDebts returns all debts, newest first with id as tie-break.
func (r *SQLiteRepository) ListDebts(ctx context.Context) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, who, label, amount_cents, created_at FROM debts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var out []core.Debt
	for rows.Next() {
		var d core.Debt
		var createdAt string
		if err := rows.Scan(&d.ID, &d.Person, &d.Label, &d.Amount.Cents, &createdAt); err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		d.CreatedAt = parseStoredTime(createdAt)
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListPayments returns all payments, most recent date first with id as
// tie-break.
func (r *SQLiteRepository) ListPayments(ctx context.Context) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, who, amount_cents, paid_at, note FROM payments ORDER BY paid_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		var p core.Payment
		if err := rows.Scan(&p.ID, &p.Person, &p.Amount.Cents, &p.PaidAt, &p.Note); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DebtSumsByPerson returns the summed debt per person.
func (r *SQLiteRepository) DebtSumsByPerson(ctx context.Context) ([]PersonSum, error) {
	return r.sumsByPerson(ctx, `SELECT who, SUM(amount_cents) FROM debts GROUP BY who`)
}

// PaymentSumsByPerson returns the summed payments per person.
func (r *SQLiteRepository) PaymentSumsByPerson(ctx context.Context) ([]PersonSum, error) {
	return r.sumsByPerson(ctx, `SELECT who, SUM(amount_cents) FROM payments GROUP BY who`)
}

func (r *SQLiteRepository) sumsByPerson(ctx context.Context, query string) ([]PersonSum, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sums by person: %w", err)
	}
	defer rows.Close()

	var out []PersonSum
	for rows.Next() {
		var s PersonSum
		if err := rows.Scan(&s.Person, &s.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan person sum: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MonthlyPaymentTotals groups payments by the YYYY-MM prefix of paid_at and
// returns the buckets in ascending month order.
func (r *SQLiteRepository) MonthlyPaymentTotals(ctx context.Context) ([]core.MonthTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT substr(paid_at, 1, 7) AS month, SUM(amount_cents)
		 FROM payments GROUP BY month ORDER BY month ASC`)
	if err != nil {
		return nil, fmt.Errorf("monthly payment totals: %w", err)
	}
	defer rows.Close()

	var out []core.MonthTotal
	for rows.Next() {
		var mt core.MonthTotal
		if err := rows.Scan(&mt.Month, &mt.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan month total: %w", err)
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}

// Backup writes a consistent snapshot of the database to path using
// VACUUM INTO. The target file must not already exist.
func (r *SQLiteRepository) Backup(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return fmt.Errorf("backup database: %w", err)
	}
	return nil
}

// parseStoredTime tolerates the two timestamp layouts SQLite hands back
// (CURRENT_TIMESTAMP default vs. explicitly inserted values).
func parseStoredTime(s string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339, "2006-01-02 15:04:05.999999999-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
