package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/usecase/interfaces"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderColumnNames = []string{
	"id", "customer_id", "service_id", "provider_id", "worker_id", "status", "scheduled_date", "notes",
	"invoice", "follow_up_service", "complaint", "feedback", "version", "created_at", "updated_at",
	"previous_invoice",
}

var ts = time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func orderRow(rows *sqlmock.Rows, id, status string, invoice []byte, version int64) *sqlmock.Rows {
	return rows.AddRow(id, "cust-1", "svc-1", "prov-1", "", status, ts, "",
		invoice, nil, "", "", version, ts, ts, nil)
}

func TestOrderRepository_GetOrder(t *testing.T) {
	t.Run("decodes jsonb invoice", func(t *testing.T) {
		db, mock := newMock(t)
		rows := orderRow(sqlmock.NewRows(orderColumnNames), "ord-1", "INVOICED",
			[]byte(`{"created_at":"2025-03-04T10:00:00Z","items":[{"name_en":"Pipe","name_ar":"","price":"12.50"}]}`), 5)
		mock.ExpectQuery(`SELECT .* FROM orders WHERE id = \$1`).WithArgs("ord-1").WillReturnRows(rows)

		o, err := NewOrderRepository(db).GetOrder(context.Background(), "ord-1")
		require.NoError(t, err)
		assert.Equal(t, entities.OrderStatusInvoiced, o.Status)
		assert.Equal(t, int64(5), o.Version)
		require.NotNil(t, o.Invoice)
		assert.Equal(t, "12.5", o.Invoice.Total().String())
		assert.Nil(t, o.FollowUpService)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("decodes follow-up history", func(t *testing.T) {
		db, mock := newMock(t)
		rows := sqlmock.NewRows(orderColumnNames).AddRow("ord-1", "cust-1", "svc-1", "prov-1", "", "PENDING", ts, "",
			nil, []byte(`{"category":"plumbing","name_en":"Heater","name_ar":"","price":"80","scheduled_at":"2025-03-04T10:00:00Z"}`),
			"", "", int64(7), ts, ts,
			[]byte(`{"created_at":"2025-03-01T10:00:00Z","items":[{"name_en":"Pipe","name_ar":"","price":"50"}]}`))
		mock.ExpectQuery(`SELECT .* FROM orders WHERE id = \$1`).WithArgs("ord-1").WillReturnRows(rows)

		o, err := NewOrderRepository(db).GetOrder(context.Background(), "ord-1")
		require.NoError(t, err)
		assert.Nil(t, o.Invoice)
		require.NotNil(t, o.PreviousInvoice)
		assert.Equal(t, "50", o.PreviousInvoice.Total().String())
		require.NotNil(t, o.FollowUpService)
		assert.False(t, o.FollowUpService.Schedulable())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`SELECT .* FROM orders`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

		o, err := NewOrderRepository(db).GetOrder(context.Background(), "nope")
		require.NoError(t, err)
		assert.Empty(t, o.ID)
	})

	t.Run("legacy cancelled spelling", func(t *testing.T) {
		db, mock := newMock(t)
		rows := orderRow(sqlmock.NewRows(orderColumnNames), "ord-1", "CANCELLED", nil, 2)
		mock.ExpectQuery(`SELECT .* FROM orders`).WillReturnRows(rows)

		o, err := NewOrderRepository(db).GetOrder(context.Background(), "ord-1")
		require.NoError(t, err)
		assert.Equal(t, entities.OrderStatusCanceled, o.Status)
		assert.Nil(t, o.Invoice)
	})
}

func TestOrderRepository_SaveOrder(t *testing.T) {
	order := entities.Order{ID: "ord-1", Status: entities.OrderStatusAccepted, WorkerID: "work-1", Version: 3, UpdatedAt: ts}

	t.Run("bumps the version", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`UPDATE orders .* WHERE id = \$1 AND version = \$2`).
			WithArgs("ord-1", int64(3), "work-1", "ACCEPTED", sqlmock.AnyArg(), "", sqlmock.AnyArg(),
				sqlmock.AnyArg(), "", "", ts, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		saved, err := NewOrderRepository(db).SaveOrder(context.Background(), order)
		require.NoError(t, err)
		assert.Equal(t, int64(4), saved.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`UPDATE orders`).WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := NewOrderRepository(db).SaveOrder(context.Background(), order)
		assert.ErrorIs(t, err, interfaces.ErrVersionConflict)
	})

	t.Run("driver error", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`UPDATE orders`).WillReturnError(errors.New("connection reset"))

		_, err := NewOrderRepository(db).SaveOrder(context.Background(), order)
		require.Error(t, err)
		assert.NotErrorIs(t, err, interfaces.ErrVersionConflict)
	})
}

func TestOrderRepository_CreateOrder(t *testing.T) {
	order := entities.Order{ID: "ord-1", CustomerID: "cust-1", Status: entities.OrderStatusPending, CreatedAt: ts, UpdatedAt: ts}

	t.Run("inserts at version 1", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`INSERT INTO orders .* ON CONFLICT \(id\) DO NOTHING`).WillReturnResult(sqlmock.NewResult(0, 1))

		created, err := NewOrderRepository(db).CreateOrder(context.Background(), order)
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.Version)
	})

	t.Run("duplicate id", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`INSERT INTO orders`).WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := NewOrderRepository(db).CreateOrder(context.Background(), order)
		assert.ErrorIs(t, err, interfaces.ErrVersionConflict)
	})
}

func TestOrderRepository_ListOrdersForProvider(t *testing.T) {
	db, mock := newMock(t)
	rows := sqlmock.NewRows(orderColumnNames)
	orderRow(rows, "ord-1", "PENDING", nil, 1)
	orderRow(rows, "ord-2", "FINISHED", nil, 6)
	mock.ExpectQuery(`FROM orders\s+WHERE provider_id = \$1 OR service_id IN`).WithArgs("prov-1").WillReturnRows(rows)

	list, err := NewOrderRepository(db).ListOrdersForProvider(context.Background(), "prov-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entities.OrderStatusFinished, list[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_SetBlacklisted(t *testing.T) {
	t.Run("provider", func(t *testing.T) {
		db, mock := newMock(t)
		rows := sqlmock.NewRows([]string{"id", "kind", "is_blacklisted", "status", "updated_at"}).
			AddRow("prov-1", "PROVIDER", true, "blacklisted", ts)
		mock.ExpectQuery(`UPDATE accounts .* RETURNING`).
			WithArgs("prov-1", true, "blacklisted", sqlmock.AnyArg()).
			WillReturnRows(rows)

		acct, err := NewAccountRepository(db).SetBlacklisted(context.Background(), "prov-1", true)
		require.NoError(t, err)
		assert.True(t, acct.IsBlacklisted)
		assert.Equal(t, entities.ProviderStatusBlacklisted, acct.Status)
	})

	t.Run("customer keeps null status", func(t *testing.T) {
		db, mock := newMock(t)
		rows := sqlmock.NewRows([]string{"id", "kind", "is_blacklisted", "status", "updated_at"}).
			AddRow("cust-1", "CUSTOMER", false, nil, ts)
		mock.ExpectQuery(`UPDATE accounts`).WillReturnRows(rows)

		acct, err := NewAccountRepository(db).SetBlacklisted(context.Background(), "cust-1", false)
		require.NoError(t, err)
		assert.Equal(t, entities.AccountKindCustomer, acct.Kind)
		assert.Empty(t, acct.Status)
	})

	t.Run("unknown account", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`UPDATE accounts`).WillReturnError(sql.ErrNoRows)

		acct, err := NewAccountRepository(db).SetBlacklisted(context.Background(), "nope", true)
		require.NoError(t, err)
		assert.Empty(t, acct.ID)
	})
}

func TestServiceRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	rows := sqlmock.NewRows([]string{"id", "provider_id", "category", "name_en", "name_ar", "price"}).
		AddRow("svc-1", "prov-1", "plumbing", "Leak repair", "", "45.00")
	mock.ExpectQuery(`SELECT .* FROM services`).WithArgs("svc-1").WillReturnRows(rows)

	svc, err := NewServiceRepository(db).GetByID(context.Background(), "svc-1")
	require.NoError(t, err)
	assert.Equal(t, "prov-1", svc.ProviderID)
}
