package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubDBStoresAndQueriesRows(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	insert := "INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload"
	for _, payload := range []string{`{"v":1}`, `{"v":2}`} {
		if _, err := conn.ExecContext(ctx, insert, []driver.NamedValue{{Value: "families_meta"}, {Value: []byte(payload)}}); err != nil {
			t.Fatalf("ExecContext insert: %v", err)
		}
	}
	if _, err := conn.ExecContext(ctx, insert, []driver.NamedValue{{Value: "families_custom"}, {Value: []byte(`{}`)}}); err != nil {
		t.Fatalf("ExecContext insert: %v", err)
	}
	if got := len(conn.Rows("state")); got != 2 {
		t.Fatalf("expected upsert to keep one row per bucket, got %d", got)
	}

	rows, err := conn.QueryContext(ctx, "SELECT bucket, payload FROM state WHERE bucket = $1", []driver.NamedValue{{Value: "families_meta"}})
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	dest := make([]driver.Value, 2)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if dest[0] != "families_meta" || string(dest[1].([]byte)) != `{"v":2}` {
		t.Fatalf("unexpected row values: %v", dest)
	}
	if err := rows.Next(dest); err == nil {
		t.Fatalf("expected the filter to return a single row")
	}

	if _, err := conn.ExecContext(ctx, "DELETE FROM state WHERE bucket = $1", []driver.NamedValue{{Value: "families_meta"}}); err != nil {
		t.Fatalf("ExecContext delete: %v", err)
	}
	if got := len(conn.Rows("state")); got != 1 {
		t.Fatalf("expected one row after delete, got %d", got)
	}
}
