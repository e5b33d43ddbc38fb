package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finance/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

// DSN builds a modernc connection string with the pragmas every connection
// needs: foreign keys on, WAL journal, and a busy timeout for concurrent
// writers.
func DSN(dbPath string) string {
	return "file:" + dbPath +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
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

// Ping implements ports.HealthChecker
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateUser implements ports.UserStore
func (r *SQLiteRepository) CreateUser(ctx context.Context, email, passwordHash string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash) VALUES (?, ?)`,
		email, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, core.ErrDuplicateEmail
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create user: last insert id: %w", err)
	}

	slog.InfoContext(ctx, "User saved to SQLite", "id", id)
	return id, nil
}

// UserByEmail implements ports.UserStore
func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// UserByID implements ports.UserStore
func (r *SQLiteRepository) UserByID(ctx context.Context, id int64) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// InsertTransaction implements ports.TransactionStore
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, title, is_expense, amount_cents, category, date_added)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Title, t.IsExpense, t.Amount.Cents, nullString(t.Category), t.Date.Format(dateLayout))
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create transaction: last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"user_id", t.UserID,
		"is_expense", t.IsExpense,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.Format(dateLayout))

	return id, nil
}

// ListTransactions implements ports.TransactionStore
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	query := `SELECT id, user_id, title, is_expense, amount_cents, category, date_added
		FROM transactions
		WHERE user_id = ?
		ORDER BY date_added DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t        core.Transaction
			category sql.NullString
			date     string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.IsExpense, &t.Amount.Cents, &category, &date); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Category = category.String
		if t.Date, err = parseStoredDate(date); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// SumTransactions implements ports.TransactionStore
func (r *SQLiteRepository) SumTransactions(ctx context.Context, userID int64, isExpense bool) (core.Money, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE user_id = ? AND is_expense = ?`,
		userID, isExpense).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.Money{Cents: total}, nil
}

// InsertGoal implements ports.GoalStore
func (r *SQLiteRepository) InsertGoal(ctx context.Context, g core.Goal) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, title, target_cents, saved_cents, date_added) VALUES (?, ?, ?, ?, ?)`,
		g.UserID, g.Title, g.Target.Cents, g.Saved.Cents, g.Date.Format(dateLayout))
	if err != nil {
		return 0, fmt.Errorf("create goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create goal: last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Goal saved to SQLite",
		"id", id,
		"user_id", g.UserID,
		"target_cents", g.Target.Cents,
		"saved_cents", g.Saved.Cents)

	return id, nil
}

// ListGoals implements ports.GoalStore
func (r *SQLiteRepository) ListGoals(ctx context.Context, userID int64, limit int) ([]core.Goal, error) {
	query := `SELECT id, user_id, title, target_cents, saved_cents, date_added
		FROM goals
		WHERE user_id = ?
		ORDER BY date_added DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var (
			g    core.Goal
			date string
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.Target.Cents, &g.Saved.Cents, &date); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if g.Date, err = parseStoredDate(date); err != nil {
			return nil, fmt.Errorf("goal %d: %w", g.ID, err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

// UpdateGoalSaving implements ports.GoalStore
func (r *SQLiteRepository) UpdateGoalSaving(ctx context.Context, userID, goalID int64, saved core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET saved_cents = ? WHERE id = ? AND user_id = ?`,
		saved.Cents, goalID, userID)
	if err != nil {
		return fmt.Errorf("update goal saving: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("update goal saving %d: %w", goalID, err)
	}

	slog.InfoContext(ctx, "Goal saving updated", "id", goalID, "user_id", userID, "saved_cents", saved.Cents)
	return nil
}

// DeleteGoal implements ports.GoalStore
func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, goalID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ? AND user_id = ?`, goalID, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("delete goal %d: %w", goalID, err)
	}

	slog.InfoContext(ctx, "Goal deleted", "id", goalID, "user_id", userID)
	return nil
}

// SumGoalSavings implements ports.GoalStore
func (r *SQLiteRepository) SumGoalSavings(ctx context.Context, userID int64) (core.Money, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(saved_cents), 0) FROM goals WHERE user_id = ?`, userID).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum goal savings: %w", err)
	}
	return core.Money{Cents: total}, nil
}

func scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, core.ErrNotFound
		}
		return core.User{}, err
	}
	return u, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func parseStoredDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
