package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"multi-trader/internal/batch"
	"multi-trader/internal/config"
)

// Journal 把每次批量操作及其逐账户结果落盘，供操作者事后对账。
type Journal struct {
	db *sql.DB
}

// BatchRecord 为历史批次的汇总行。
type BatchRecord struct {
	ID        int64
	Action    string
	Succeeded int
	Skipped   int
	Failed    int
	Total     int
	StartedAt time.Time
}

// NewJournal 根据配置初始化 SQLite 流水库。
func NewJournal(cfg config.DatabaseConfig) (*Journal, error) {
	dsn := cfg.Path
	if cfg.InMemory {
		dsn = ":memory:"
	} else {
		if err := ensureDir(filepath.Dir(cfg.Path)); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on", dsn))
	if err != nil {
		return nil, fmt.Errorf("打开 SQLite 数据库失败: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("设置 SQLite WAL 模式失败: %w", err)
	}

	journal := &Journal{db: conn}
	if err := journal.initSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return journal, nil
}

func (j *Journal) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			succeeded INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			total INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS batch_orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id INTEGER NOT NULL REFERENCES batches(id),
			account TEXT NOT NULL,
			outcome TEXT NOT NULL,
			order_id TEXT,
			reason TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_batch_orders_batch ON batch_orders(batch_id);`,
	}

	for _, stmt := range schema {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: 初始化表结构失败: %w", err)
		}
	}

	return nil
}

// RecordBatch 在一个事务内写入批次汇总及逐账户结果，返回批次ID。
func (j *Journal) RecordBatch(ctx context.Context, res batch.Result) (int64, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: 开启事务失败: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insert, err := tx.ExecContext(ctx,
		`INSERT INTO batches (action, succeeded, skipped, failed, total, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(res.Action), res.Succeeded, res.Skipped, res.Failed, res.Total,
		res.StartedAt.UTC().Format(time.RFC3339),
		res.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("store: 写入批次汇总失败: %w", err)
	}

	batchID, err := insert.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: 获取批次ID失败: %w", err)
	}

	names := make([]string, 0, len(res.Results))
	for name := range res.Results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		outcome := res.Results[name]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO batch_orders (batch_id, account, outcome, order_id, reason)
			 VALUES (?, ?, ?, ?, ?)`,
			batchID, outcome.Account, string(outcome.Outcome), outcome.OrderID, outcome.Reason,
		); err != nil {
			return 0, fmt.Errorf("store: 写入账户结果失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: 提交事务失败: %w", err)
	}

	return batchID, nil
}

// RecentBatches 返回最近的若干批次，按时间倒序。
func (j *Journal) RecentBatches(ctx context.Context, limit int) ([]BatchRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, action, succeeded, skipped, failed, total, started_at
		 FROM batches ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: 查询历史批次失败: %w", err)
	}
	defer rows.Close()

	var records []BatchRecord
	for rows.Next() {
		var rec BatchRecord
		var startedAt string
		if err := rows.Scan(&rec.ID, &rec.Action, &rec.Succeeded, &rec.Skipped, &rec.Failed, &rec.Total, &startedAt); err != nil {
			return nil, fmt.Errorf("store: 读取历史批次失败: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339, startedAt); parseErr == nil {
			rec.StartedAt = ts
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Close 关闭数据库连接。
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("创建目录 %q 失败: %w", path, err)
	}
	return nil
}
