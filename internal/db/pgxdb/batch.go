package pgxdb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// upsertBatchSize caps how many rows are sent per pipelined batch. Large
// media-file metadata refreshes and search recomputation both write
// hundreds to thousands of rows per run, so statements are chunked instead
// of sent one at a time.
const upsertBatchSize = 500

// BatchUpsert sends one INSERT ... ON CONFLICT statement per row in rows,
// pipelined via pgx's Batch API in groups of upsertBatchSize, inside the
// connection's current transaction scope. Each element of rows holds the
// positional arguments for a single row.
func (c *DbConnection) BatchUpsert(ctx context.Context, sql string, rows [][]any) error {
	for start := 0; start < len(rows); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		batch := &pgx.Batch{}
		for _, row := range rows[start:end] {
			batch.Queue(sql, row...)
		}

		br := c.sendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("pgxdb: batch upsert rows [%d:%d] item %d: %w", start, end, i, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("pgxdb: batch upsert rows [%d:%d] close: %w", start, end, err)
		}
	}
	return nil
}
