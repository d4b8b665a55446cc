package db

import (
	"context"
	"database/sql"
	"log"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// 書き込みTxがデッドロックで弾かれたときの試行回数（初回を含む）
const maxTxAttempts = 3

// Txを開始して fn を実行。fn が nil を返せば COMMIT、エラーなら ROLLBACK。
// 書き込みTxはデッドロック / ロック待ちタイムアウトのとき fn ごとやり直す。
// fn はTxの外の状態を積み上げず、毎回代入で結果を返すこと。
func RunInTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	attempts := maxTxAttempts
	if opts != nil && opts.ReadOnly {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = runOnce(ctx, db, opts, fn)
		if err == nil || !IsRetryable(err) || ctx.Err() != nil {
			return err
		}
		log.Printf("[WARN] tx attempt %d/%d: %v", i, attempts, err)
	}
	return err
}

func runOnce(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// 読み取り専用Tx（再試行なし）
func ReadOnly(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx DBTX) error) error {
	return RunInTx(ctx, db, &sql.TxOptions{ReadOnly: true}, fn)
}
