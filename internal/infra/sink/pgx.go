package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/yanqian/fitbit-export/internal/infra/config"
)

type pgxConn struct {
	conn *pgx.Conn
}

func (c pgxConn) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgxTx{tx: tx}, nil
}

func (c pgxConn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// pgxTx wraps a pgx transaction; pgx implements nested Begin as a savepoint.
type pgxTx struct {
	tx pgx.Tx
}

func (t pgxTx) Begin(ctx context.Context) (Tx, error) {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgxTx{tx: sp}, nil
}

func (t pgxTx) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := t.tx.Exec(ctx, sql, args...)
	return err
}

func (t pgxTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t pgxTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// PostgresConnector connects with the secrets file's host, port, database
// and user. The password, if any, comes from libpq's usual sources.
func PostgresConnector(secrets *config.Secrets, applicationName string) Connector {
	dsn := DSN(secrets, applicationName)
	return func(ctx context.Context) (Conn, error) {
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return pgxConn{conn: conn}, nil
	}
}

// DSN renders a keyword/value connection string.
func DSN(secrets *config.Secrets, applicationName string) string {
	parts := []string{
		"host=" + quoteDSN(secrets.Host),
		"port=" + quoteDSN(secrets.Port),
		"dbname=" + quoteDSN(secrets.DBName),
		"user=" + quoteDSN(secrets.DBUser),
	}
	if applicationName != "" {
		parts = append(parts, "application_name="+quoteDSN(applicationName))
	}
	return strings.Join(parts, " ")
}

func quoteDSN(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return fmt.Sprintf("'%s'", v)
}
