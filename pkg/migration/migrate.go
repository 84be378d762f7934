// Package migration はSQLデータベースのマイグレーションを管理する。
// embed.FSからSQLファイルを読み込み、バージョン管理テーブルで適用状態を追跡する。
// SQLiteとPostgreSQLの両方で動くよう、プレースホルダーは呼び出し側が指定する。
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/sirupsen/logrus"
)

// Migrator はマイグレーションを適用する。
type Migrator struct {
	db     *sql.DB
	sb     sq.StatementBuilderType
	logger *logrus.Entry
}

// New はMigratorを生成する。phにはドライバーに合わせたプレースホルダー形式を渡す。
func New(db *sql.DB, ph sq.PlaceholderFormat, logger *logrus.Entry) *Migrator {
	return &Migrator{
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(ph),
		logger: logger,
	}
}

// Run はembedされたマイグレーションファイルを順序通りに適用する。
// 未適用のマイグレーションのみ実行し、適用済みのものはスキップする。
// ファイル名形式: 000001_description.up.sql
func (m *Migrator) Run(ctx context.Context, fsys fs.FS, dir string) error {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return fmt.Errorf("マイグレーション管理テーブルの作成に失敗: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("適用済みバージョンの取得に失敗: %w", err)
	}

	migrations, err := collectMigrations(fsys, dir)
	if err != nil {
		return fmt.Errorf("マイグレーションファイルの収集に失敗: %w", err)
	}

	for _, mf := range migrations {
		if applied[mf.version] {
			continue
		}

		if err := m.apply(ctx, fsys, mf); err != nil {
			return fmt.Errorf("マイグレーション %06d の適用に失敗: %w", mf.version, err)
		}
		m.logger.WithField("version", mf.version).Infof("マイグレーション %06d_%s を適用しました", mf.version, mf.name)
	}

	return nil
}

type migrationFile struct {
	version int
	name    string
	path    string
}

// ensureMigrationsTable はバージョン管理テーブルを作成する。
func (m *Migrator) ensureMigrationsTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// appliedVersions は適用済みのマイグレーションバージョンを取得する。
func (m *Migrator) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := m.sb.Select("version").From("schema_migrations").OrderBy("version").
		RunWith(m.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// collectMigrations はディレクトリからup.sqlファイルを収集してバージョン順にソートする。
func collectMigrations(fsys fs.FS, dir string) ([]migrationFile, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var migrations []migrationFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}

		prefix, rest, ok := strings.Cut(entry.Name(), "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}

		migrations = append(migrations, migrationFile{
			version: version,
			name:    strings.TrimSuffix(rest, ".up.sql"),
			path:    dir + "/" + entry.Name(),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})

	return migrations, nil
}

// apply は1つのマイグレーションをトランザクション内で適用する。
func (m *Migrator) apply(ctx context.Context, fsys fs.FS, mf migrationFile) error {
	content, err := fs.ReadFile(fsys, mf.path)
	if err != nil {
		return fmt.Errorf("ファイル読み込みに失敗: %w", err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("SQL実行に失敗: %w", err)
	}

	if _, err := m.sb.Insert("schema_migrations").Columns("version").Values(mf.version).
		RunWith(tx).ExecContext(ctx); err != nil {
		return fmt.Errorf("バージョン記録に失敗: %w", err)
	}

	return tx.Commit()
}
