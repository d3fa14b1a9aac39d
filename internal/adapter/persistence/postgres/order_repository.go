package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/usecase/interfaces"
)

const orderColumns = `id, customer_id, service_id, provider_id, worker_id, status, scheduled_date, notes,
	invoice, follow_up_service, complaint, feedback, version, created_at, updated_at, previous_invoice`

// OrderRepository stores orders in Postgres. Invoices and the follow-up service are JSONB columns.
type OrderRepository struct {
	db *sql.DB
}

var _ interfaces.IOrderRepository = (*OrderRepository)(nil)

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *OrderRepository) GetOrder(ctx context.Context, id string) (entities.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, nil
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, o entities.Order) (entities.Order, error) {
	if o.Version == 0 {
		o.Version = 1
	}
	n, err := encodeNested(o)
	if err != nil {
		return entities.Order{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO NOTHING
	`, o.ID, o.CustomerID, o.ServiceID, o.ProviderID, o.WorkerID, string(o.Status), o.ScheduledDate, o.Notes,
		n.invoice, n.followUp, o.Complaint, o.Feedback, o.Version, o.CreatedAt, o.UpdatedAt, n.previousInvoice)
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return entities.Order{}, err
	} else if n == 0 {
		return entities.Order{}, interfaces.ErrVersionConflict
	}
	return o, nil
}

// SaveOrder only matches the row at the version the order was read at.
func (r *OrderRepository) SaveOrder(ctx context.Context, o entities.Order) (entities.Order, error) {
	n, err := encodeNested(o)
	if err != nil {
		return entities.Order{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET worker_id = $3, status = $4, scheduled_date = $5, notes = $6, invoice = $7,
		    follow_up_service = $8, complaint = $9, feedback = $10, updated_at = $11,
		    previous_invoice = $12, version = version + 1
		WHERE id = $1 AND version = $2
	`, o.ID, o.Version, o.WorkerID, string(o.Status), o.ScheduledDate, o.Notes, n.invoice,
		n.followUp, o.Complaint, o.Feedback, o.UpdatedAt, n.previousInvoice)
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to update order: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return entities.Order{}, err
	} else if n == 0 {
		return entities.Order{}, interfaces.ErrVersionConflict
	}
	o.Version++
	return o, nil
}

func (r *OrderRepository) ListOrdersForCustomer(ctx context.Context, customerID string) ([]entities.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY id`, customerID)
}

// ListOrdersForProvider also catches orders whose provider_id predates a service transfer.
func (r *OrderRepository) ListOrdersForProvider(ctx context.Context, providerID string) ([]entities.Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE provider_id = $1 OR service_id IN (SELECT id FROM services WHERE provider_id = $1)
		ORDER BY id
	`, providerID)
}

func (r *OrderRepository) list(ctx context.Context, query string, arg string) ([]entities.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []entities.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanOrder(s rowScanner) (entities.Order, error) {
	var (
		o      entities.Order
		status string
		n      nestedColumns
	)
	err := s.Scan(&o.ID, &o.CustomerID, &o.ServiceID, &o.ProviderID, &o.WorkerID, &status, &o.ScheduledDate, &o.Notes,
		&n.invoice, &n.followUp, &o.Complaint, &o.Feedback, &o.Version, &o.CreatedAt, &o.UpdatedAt, &n.previousInvoice)
	if err != nil {
		return entities.Order{}, err
	}

	if parsed, ok := entities.ParseOrderStatus(status); ok {
		o.Status = parsed
	} else {
		o.Status = entities.OrderStatus(status)
	}
	if len(n.invoice) > 0 {
		o.Invoice = &entities.Invoice{}
		if err := json.Unmarshal(n.invoice, o.Invoice); err != nil {
			return entities.Order{}, fmt.Errorf("invoice column: %w", err)
		}
	}
	if len(n.previousInvoice) > 0 {
		o.PreviousInvoice = &entities.Invoice{}
		if err := json.Unmarshal(n.previousInvoice, o.PreviousInvoice); err != nil {
			return entities.Order{}, fmt.Errorf("previous_invoice column: %w", err)
		}
	}
	if len(n.followUp) > 0 {
		o.FollowUpService = &entities.FollowUpService{}
		if err := json.Unmarshal(n.followUp, o.FollowUpService); err != nil {
			return entities.Order{}, fmt.Errorf("follow_up_service column: %w", err)
		}
	}
	return o, nil
}

type nestedColumns struct {
	invoice, previousInvoice, followUp []byte
}

// encodeNested leaves absent values nil so the columns store NULL.
func encodeNested(o entities.Order) (nestedColumns, error) {
	var (
		n   nestedColumns
		err error
	)
	if o.Invoice != nil {
		if n.invoice, err = json.Marshal(o.Invoice); err != nil {
			return nestedColumns{}, err
		}
	}
	if o.PreviousInvoice != nil {
		if n.previousInvoice, err = json.Marshal(o.PreviousInvoice); err != nil {
			return nestedColumns{}, err
		}
	}
	if o.FollowUpService != nil {
		if n.followUp, err = json.Marshal(o.FollowUpService); err != nil {
			return nestedColumns{}, err
		}
	}
	return n, nil
}
