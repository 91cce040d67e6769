package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/vedpatil1345/codetalk/internal/model/auth"
)

// LocalProvider keeps accounts in SQLite with bcrypt password hashes.
type LocalProvider struct {
	db       *sql.DB
	cost     int
	attempts *attemptLimiter
}

// NewLocalProvider opens the account database at dbPath.
func NewLocalProvider(dbPath string) (*LocalProvider, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &LocalProvider{db: db, cost: bcrypt.DefaultCost, attempts: newAttemptLimiter()}
	if err := p.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return p, nil
}

func (p *LocalProvider) initSchema() error {
	query := `
	PRAGMA journal_mode = WAL;
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS accounts (
		uid TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);`
	if _, err := p.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close releases the database.
func (p *LocalProvider) Close() error {
	return p.db.Close()
}

// SignUp creates an account.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (auth.User, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return auth.User{}, err
	}
	if len(password) < MinPasswordLength {
		return auth.User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return auth.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := auth.User{UID: uuid.NewString(), Email: normalizeEmail(email)}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO accounts (uid, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.UID, user.Email, hash, time.Now().Unix())
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return auth.User{}, ErrEmailInUse
		}
		return auth.User{}, fmt.Errorf("insert account: %w", err)
	}
	return user, nil
}

// SignIn checks the password of an existing account. Repeated failures for
// one email are throttled with ErrTooManyAttempts.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (auth.User, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return auth.User{}, err
	}

	key := normalizeEmail(email)
	if p.attempts.Blocked(key) {
		return auth.User{}, ErrTooManyAttempts
	}

	var user auth.User
	var hash []byte
	row := p.db.QueryRowContext(ctx,
		`SELECT uid, email, password_hash FROM accounts WHERE email = ?`, key)
	if err := row.Scan(&user.UID, &user.Email, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			p.attempts.Fail(key)
			return auth.User{}, ErrInvalidCredentials
		}
		return auth.User{}, fmt.Errorf("scan account row: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		p.attempts.Fail(key)
		return auth.User{}, ErrInvalidCredentials
	}
	p.attempts.Reset(key)
	return user, nil
}

// SignOut has nothing to revoke for local accounts.
func (p *LocalProvider) SignOut(context.Context, auth.User) error {
	return nil
}
