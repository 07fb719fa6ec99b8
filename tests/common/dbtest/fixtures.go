//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// Reference catalog shared by every e2e suite. Mirrors configs/seed.json.
var (
	MugProductID   = uuid.MustParse("5b0f1c2e-8c1a-4a43-9a55-0f6f6a1b1a01")
	TowelProductID = uuid.MustParse("5b0f1c2e-8c1a-4a43-9a55-0f6f6a1b1a02")
	CityAreaID     = uuid.MustParse("9e2a7c3d-1f4b-4c8e-8d2a-3b6c5d7e8f01")
	SuburbsAreaID  = uuid.MustParse("9e2a7c3d-1f4b-4c8e-8d2a-3b6c5d7e8f02")
	MarketplaceID  = uuid.MustParse("1d6f0e4a-2b3c-4d5e-8f70-a1b2c3d4e5f6")
)

// DBLike is satisfied by the pool and by an open transaction.
type DBLike interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func CreateTestProduct(t *testing.T, db DBLike, name, price, currency string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO products (id, name, price, currency) VALUES ($1, $2, $3::numeric, $4)",
		id, name, price, currency)
	require.NoError(t, err)
	return id
}

func CreateTestDeliveryArea(t *testing.T, db DBLike, label, price, currency string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO delivery_areas (id, marketplace_id, label, price, currency) VALUES ($1, $2, $3, $4::numeric, $5)",
		id, MarketplaceID, label, price, currency)
	require.NoError(t, err)
	return id
}

// CountRows returns the number of rows in table matching where.
func CountRows(t *testing.T, db DBLike, table, where string, args ...any) int {
	t.Helper()

	var n int
	query := "SELECT count(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	require.NoError(t, db.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

// inserts basic reference data needed by tests
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO products (id, name, price, currency) VALUES
		    ($1, 'Handmade ceramic mug', 20.00, 'USD'),
		    ($2, 'Linen tea towel', 12.50, 'USD')
		ON CONFLICT (id) DO NOTHING;
	`, MugProductID, TowelProductID)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO delivery_areas (id, marketplace_id, label, price, currency) VALUES
		    ($1, $3, 'City center', 5.00, 'USD'),
		    ($2, $3, 'Suburbs', 8.00, 'USD')
		ON CONFLICT (id) DO NOTHING;
	`, CityAreaID, SuburbsAreaID, MarketplaceID)
	return err
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
