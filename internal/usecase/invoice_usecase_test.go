package usecase

import (
	"context"
	"errors"
	"testing"

	"homefix_orders/internal/domain/entities"
	mock_interfaces "homefix_orders/internal/usecase/interfaces/mocks"

	"go.uber.org/mock/gomock"
)

func pipe(price string) []entities.InvoiceLineItem {
	return []entities.InvoiceLineItem{{NameEN: "Pipe", NameAR: "أنبوب", Price: price}}
}

func TestOrderUseCase_Invoice_ValidationIsAtomic(t *testing.T) {
	cases := []struct {
		name    string
		items   []entities.InvoiceLineItem
		mode    InvoiceMode
		wantErr error
	}{
		{name: "empty items", items: nil, mode: InvoiceModeCreate, wantErr: ErrInvalidInvoiceItem},
		{name: "negative price", items: pipe("-1"), mode: InvoiceModeCreate, wantErr: ErrInvalidInvoiceItem},
		{name: "non numeric price", items: pipe("fifty"), mode: InvoiceModeReplace, wantErr: ErrInvalidInvoiceItem},
		{name: "one bad item among good", items: append(pipe("50"), entities.InvoiceLineItem{NameEN: "Labour", Price: "-0.01"}), mode: InvoiceModeCreate, wantErr: ErrInvalidInvoiceItem},
		{name: "nameless item", items: []entities.InvoiceLineItem{{Price: "5"}}, mode: InvoiceModeCreate, wantErr: ErrInvalidInvoiceItem},
		{name: "unknown mode", items: pipe("50"), mode: "UPSERT", wantErr: ErrInvalidInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			// The repository must not be touched.
			repo := mock_interfaces.NewMockIOrderRepository(ctrl)
			uc := newTestOrderUseCase(t, repo, nil)

			_, err := uc.Invoice(context.Background(), InvoiceCommand{OrderID: "ord-1", Items: tc.items, Mode: tc.mode, Actor: workerActor})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestOrderUseCase_Invoice_StateRules(t *testing.T) {
	withInvoice := func(status entities.OrderStatus) entities.Order {
		o := testOrder(status)
		o.Invoice = &entities.Invoice{Items: pipe("10")}
		return o
	}

	cases := []struct {
		name    string
		order   entities.Order
		mode    InvoiceMode
		actor   entities.Actor
		wantErr error
	}{
		{name: "create while pending", order: testOrder(entities.OrderStatusPending), mode: InvoiceModeCreate, actor: workerActor, wantErr: ErrIllegalTransition},
		{name: "create twice", order: withInvoice(entities.OrderStatusFinished), mode: InvoiceModeCreate, actor: workerActor, wantErr: ErrInvoiceAlreadyAttached},
		{name: "create on invoiced", order: withInvoice(entities.OrderStatusInvoiced), mode: InvoiceModeCreate, actor: workerActor, wantErr: ErrIllegalTransition},
		{name: "replace on paid", order: withInvoice(entities.OrderStatusPaid), mode: InvoiceModeReplace, actor: workerActor, wantErr: ErrIllegalTransition},
		{name: "customer invoices", order: testOrder(entities.OrderStatusInProgress), mode: InvoiceModeCreate, actor: customerActor, wantErr: ErrIllegalTransition},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			repo := mock_interfaces.NewMockIOrderRepository(ctrl)
			uc := newTestOrderUseCase(t, repo, nil)
			repo.EXPECT().GetOrder(gomock.Any(), "ord-1").Return(tc.order, nil)

			_, err := uc.Invoice(context.Background(), InvoiceCommand{OrderID: "ord-1", Items: pipe("50"), Mode: tc.mode, Actor: tc.actor})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestOrderUseCase_Invoice_Success(t *testing.T) {
	t.Run("create keeps status and does not notify", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIOrderRepository(ctrl)
		notifier := mock_interfaces.NewMockINotifier(ctrl)
		uc := newTestOrderUseCase(t, repo, notifier)

		repo.EXPECT().GetOrder(gomock.Any(), "ord-1").Return(testOrder(entities.OrderStatusInProgress), nil)
		repo.EXPECT().SaveOrder(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, o entities.Order) (entities.Order, error) { return o, nil },
		)

		res, err := uc.Invoice(context.Background(), InvoiceCommand{OrderID: "ord-1", Items: pipe(" 50 "), Mode: InvoiceModeCreate, Actor: workerActor})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Status != entities.OrderStatusInProgress {
			t.Fatalf("expected IN_PROGRESS got %s", res.Status)
		}
		if res.Invoice == nil || res.Invoice.Items[0].Price != "50" || !res.Invoice.CreatedAt.Equal(fixedNow) {
			t.Fatalf("unexpected invoice: %+v", res.Invoice)
		}
		if res.Invoice.Total().String() != "50" {
			t.Fatalf("expected total 50 got %s", res.Invoice.Total())
		}
	})

	t.Run("replace with finalize transitions to invoiced", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIOrderRepository(ctrl)
		notifier := mock_interfaces.NewMockINotifier(ctrl)
		uc := newTestOrderUseCase(t, repo, notifier)

		prior := testOrder(entities.OrderStatusInProgress)
		prior.Invoice = &entities.Invoice{Items: pipe("40")}
		repo.EXPECT().GetOrder(gomock.Any(), "ord-1").Return(prior, nil)
		repo.EXPECT().SaveOrder(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, o entities.Order) (entities.Order, error) { return o, nil },
		)
		notifier.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, ev entities.StatusChanged) error {
				if ev.NewStatus != entities.OrderStatusInvoiced {
					t.Fatalf("unexpected event: %+v", ev)
				}
				return nil
			},
		)

		items := []entities.InvoiceLineItem{{NameEN: "Valve", Price: "80"}, {NameEN: "Labour", Price: "19.50"}}
		res, err := uc.Invoice(context.Background(), InvoiceCommand{OrderID: "ord-1", Items: items, Mode: InvoiceModeReplace, Actor: providerActor, Finalize: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Status != entities.OrderStatusInvoiced || len(res.Invoice.Items) != 2 {
			t.Fatalf("unexpected order: %+v", res)
		}
		if res.Invoice.Total().String() != "99.5" {
			t.Fatalf("expected total 99.5 got %s", res.Invoice.Total())
		}
		if prior.Invoice.Items[0].Price != "40" {
			t.Fatalf("caller snapshot must not be mutated")
		}
	})
}

func TestParseInvoiceMode(t *testing.T) {
	if m, ok := ParseInvoiceMode(" replace "); !ok || m != InvoiceModeReplace {
		t.Fatalf("expected REPLACE, got %q %v", m, ok)
	}
	if _, ok := ParseInvoiceMode("append"); ok {
		t.Fatalf("expected unknown mode to fail")
	}
}
