package event

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/muhammadchandra19/orderbook-recon/pkg/questdb"
)

// Repository archives applied MBO events into QuestDB for audit and replay
// analysis. The archive is write-mostly; queries filter by symbol and time.
type Repository struct {
	client questdb.QuestDBClient
}

// NewRepository creates a new event archive repository.
func NewRepository(client questdb.QuestDBClient) *Repository {
	return &Repository{
		client: client,
	}
}

// Store stores a single applied event.
func (r *Repository) Store(ctx context.Context, record *Record) error {
	query := `INSERT INTO mbo_events (timestamp, symbol, action, side, price, size, order_id, sequence)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	err := r.client.Exec(ctx, query,
		record.Timestamp, record.Symbol, record.Action, record.Side,
		record.Price, record.Size, record.OrderID, record.Sequence)

	if err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}

	return nil
}

// StoreBatch stores a batch of applied events.
func (r *Repository) StoreBatch(ctx context.Context, records []*Record) error {
	if len(records) == 0 {
		return nil
	}

	// Use CopyFrom for better performance with large batches
	_, err := r.client.CopyFrom(
		ctx,
		pgx.Identifier{"mbo_events"},
		[]string{"timestamp", "symbol", "action", "side", "price", "size", "order_id", "sequence"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			record := records[i]
			return []any{
				record.Timestamp,
				record.Symbol,
				record.Action,
				record.Side,
				record.Price,
				record.Size,
				record.OrderID,
				record.Sequence,
			}, nil
		}),
	)

	if err != nil {
		return fmt.Errorf("failed to copy events: %w", err)
	}

	return nil
}

// GetByFilter retrieves archived events by filter.
func (r *Repository) GetByFilter(ctx context.Context, filter Filter) ([]*Record, error) {
	query := "SELECT timestamp, symbol, action, side, price, size, order_id, sequence FROM mbo_events WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.Symbol != "" {
		query += fmt.Sprintf(" AND symbol = $%d", argIndex)
		args = append(args, filter.Symbol)
		argIndex++
	}

	if filter.From != nil {
		query += fmt.Sprintf(" AND timestamp >= $%d", argIndex)
		args = append(args, *filter.From)
		argIndex++
	}

	if filter.To != nil {
		query += fmt.Sprintf(" AND timestamp <= $%d", argIndex)
		args = append(args, *filter.To)
		argIndex++
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}

	rows, err := r.client.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record := &Record{}
		if err := rows.Scan(
			&record.Timestamp, &record.Symbol, &record.Action, &record.Side,
			&record.Price, &record.Size, &record.OrderID, &record.Sequence,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	return records, nil
}
