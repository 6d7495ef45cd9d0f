package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// WithTransaction выполняет функцию внутри транзакции. Ошибка fn возвращается
// без обёртки, чтобы вызывающий код мог сравнить её с доменными ошибками.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// ForUpdate возвращает блокировку строки для диалектов, которые её поддерживают.
// В SQLite единственное соединение и так сериализует транзакции.
func ForUpdate(conn interface{ DriverName() string }) string {
	if conn.DriverName() == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}
