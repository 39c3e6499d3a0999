// Package database bootstraps the PostgreSQL schema. Table names come from
// configuration, so the embedded SQL is rendered with quoted identifiers
// before it is executed.
package database

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema/init.up.sql
var initUp string

//go:embed schema/init.down.sql
var initDown string

var (
	upTemplate   = template.Must(template.New("up").Parse(initUp))
	downTemplate = template.Must(template.New("down").Parse(initDown))
)

// Tables names the three tables the service uses.
type Tables struct {
	Items         string
	Checkpoint    string
	Subscriptions string
}

// Execer is satisfied by *pgx.Conn, *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates any missing table. It is safe to run on every start.
func EnsureSchema(ctx context.Context, db Execer, tables Tables) error {
	return execTemplate(ctx, db, upTemplate, tables)
}

// DropSchema removes all tables.
func DropSchema(ctx context.Context, db Execer, tables Tables) error {
	return execTemplate(ctx, db, downTemplate, tables)
}

func execTemplate(ctx context.Context, db Execer, tmpl *template.Template, tables Tables) error {
	sql, err := render(tmpl, tables)
	if err != nil {
		return err
	}
	if _, err := db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to apply %s schema: %w", tmpl.Name(), err)
	}
	return nil
}

func render(tmpl *template.Template, tables Tables) (string, error) {
	if tables.Items == "" || tables.Checkpoint == "" || tables.Subscriptions == "" {
		return "", fmt.Errorf("all table names are required")
	}
	quoted := Tables{
		Items:         pgx.Identifier{tables.Items}.Sanitize(),
		Checkpoint:    pgx.Identifier{tables.Checkpoint}.Sanitize(),
		Subscriptions: pgx.Identifier{tables.Subscriptions}.Sanitize(),
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, quoted); err != nil {
		return "", fmt.Errorf("failed to render %s schema: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
