package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/nao1215/postnotify/pkg/config"
	"github.com/nao1215/postnotify/pkg/migration"
	"github.com/nao1215/postnotify/pkg/model"
)

// ErrNotFound は指定IDのレコードが存在しないことを表す。
var ErrNotFound = errors.New("record not found")

//go:embed migrations
var migrations embed.FS

// Dialect はSQL方言。
type Dialect string

const (
	// SQLite はmodernc.org/sqliteドライバーを使う。
	SQLite Dialect = "sqlite"
	// Postgres はlib/pqドライバーを使う。
	Postgres Dialect = "postgres"
)

// placeholder は方言に対応するプレースホルダー形式を返す。
func (d Dialect) placeholder() sq.PlaceholderFormat {
	if d == Postgres {
		return sq.Dollar
	}
	return sq.Question
}

// Store はユーザーと投稿のレコードストア。並行利用して安全。
type Store struct {
	db      *sql.DB
	dialect Dialect
	sb      sq.StatementBuilderType
}

// Open は設定に従ってデータベースへ接続する。マイグレーションは行わない。
func Open(cfg config.Store) (*Store, error) {
	dialect := Dialect(cfg.Driver)
	switch dialect {
	case SQLite, Postgres:
	default:
		return nil, fmt.Errorf("未対応のストアドライバー: %q", cfg.Driver)
	}

	db, err := sql.Open(string(dialect), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if dialect == SQLite {
		// 書き込みを直列化し、:memory: でも全クエリが同じDBを見るようにする
		db.SetMaxOpenConns(1)
	}
	return New(db, dialect), nil
}

// New は既存の接続からStoreを生成する。
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		sb:      sq.StatementBuilder.PlaceholderFormat(dialect.placeholder()),
	}
}

// Migrate は方言に対応するマイグレーションを適用する。
func (s *Store) Migrate(ctx context.Context, logger *logrus.Entry) error {
	m := migration.New(s.db, s.dialect.placeholder(), logger)
	if err := m.Run(ctx, migrations, "migrations/"+string(s.dialect)); err != nil {
		return fmt.Errorf("マイグレーションに失敗: %w", err)
	}
	return nil
}

// Ping は接続を確認する。
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close は接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser はユーザーを登録し、採番されたIDを返す。
func (s *Store) CreateUser(ctx context.Context, name, email string) (int64, error) {
	var id int64
	err := s.sb.Insert("users").
		Columns("name", "email").
		Values(name, email).
		Suffix("RETURNING id").
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ユーザーの登録に失敗: %w", err)
	}
	return id, nil
}

// GetUser はIDでユーザーを取得する。存在しない場合はErrNotFound。
func (s *Store) GetUser(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := s.sb.Select("id", "name", "email").
		From("users").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("ユーザー %d の取得に失敗: %w", id, err)
	}
	return u, nil
}

// ListUsers は全ユーザーをID順に返す。
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.sb.Select("id", "name", "email").
		From("users").
		OrderBy("id").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("ユーザー行の読み取りに失敗: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗: %w", err)
	}
	return users, nil
}

// CreatePost は投稿を登録し、採番されたIDを返す。
// userIDの存在は確認しない。
func (s *Store) CreatePost(ctx context.Context, title, content string, userID int64) (int64, error) {
	var id int64
	err := s.sb.Insert("posts").
		Columns("title", "content", "userid").
		Values(title, content, userID).
		Suffix("RETURNING id").
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("投稿の登録に失敗: %w", err)
	}
	return id, nil
}

// GetPost はIDで投稿を取得する。存在しない場合はErrNotFound。
func (s *Store) GetPost(ctx context.Context, id int64) (model.Post, error) {
	var p model.Post
	err := s.sb.Select("id", "title", "content", "userid").
		From("posts").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&p.ID, &p.Title, &p.Content, &p.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, ErrNotFound
		}
		return model.Post{}, fmt.Errorf("投稿 %d の取得に失敗: %w", id, err)
	}
	return p, nil
}
