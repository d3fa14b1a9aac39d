package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type fakeDynamo struct {
	getOut    *dynamodb.GetItemOutput
	getErr    error
	putErr    error
	updateOut *dynamodb.UpdateItemOutput
	updateErr error
	pages     []*dynamodb.QueryOutput

	puts    []*dynamodb.PutItemInput
	updates []*dynamodb.UpdateItemInput
	queries []*dynamodb.QueryInput
}

func (f *fakeDynamo) GetItem(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getOut == nil {
		return &dynamodb.GetItemOutput{}, f.getErr
	}
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	if f.updateOut == nil {
		return &dynamodb.UpdateItemOutput{}, f.updateErr
	}
	return f.updateOut, f.updateErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, in)
	page := f.pages[len(f.queries)-1]
	return page, nil
}

func sampleOrder() entities.Order {
	ts := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	return entities.Order{
		ID:            "ord-1",
		CustomerID:    "cust-1",
		ServiceID:     "svc-1",
		ProviderID:    "prov-1",
		WorkerID:      "work-1",
		Status:        entities.OrderStatusInvoiced,
		ScheduledDate: ts,
		Notes:         "gate code 12",
		Invoice: &entities.Invoice{CreatedAt: ts, Items: []entities.InvoiceLineItem{
			{NameEN: "Pipe", NameAR: "أنبوب", Price: "50"},
		}},
		FollowUpService: &entities.FollowUpService{Category: "plumbing", NameEN: "Heater", Price: "80"},
		Version:         3,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
}

func mustMarshal(t *testing.T, o entities.Order) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(toOrderItem(o))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return av
}

func TestOrderDynamoRepository_GetOrder(t *testing.T) {
	t.Run("missing item", func(t *testing.T) {
		repo := NewOrderDynamoRepository(&fakeDynamo{}, "")
		o, err := repo.GetOrder(context.Background(), "ord-1")
		if err != nil || o.ID != "" {
			t.Fatalf("expected zero order, got %+v %v", o, err)
		}
	})

	t.Run("nested invoice and follow-up survive storage", func(t *testing.T) {
		want := sampleOrder()
		repo := NewOrderDynamoRepository(&fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: mustMarshal(t, want)}}, "")
		got, err := repo.GetOrder(context.Background(), "ord-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != want.Status || got.Version != 3 || got.Invoice.Total().String() != "50" || got.FollowUpService.Price != "80" {
			t.Fatalf("unexpected order: %+v", got)
		}
		if !got.ScheduledDate.Equal(want.ScheduledDate) || got.Invoice.Items[0].NameAR != "أنبوب" {
			t.Fatalf("unexpected fields: %+v", got)
		}
	})

	t.Run("follow-up cycle history survives storage", func(t *testing.T) {
		want := sampleOrder()
		want.Status = entities.OrderStatusPending
		want.PreviousInvoice = want.Invoice
		want.Invoice = nil
		booked := want.ScheduledDate.Add(-time.Hour)
		want.FollowUpService.ScheduledAt = &booked
		repo := NewOrderDynamoRepository(&fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: mustMarshal(t, want)}}, "")
		got, err := repo.GetOrder(context.Background(), "ord-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Invoice != nil || got.PreviousInvoice == nil || got.PreviousInvoice.Total().String() != "50" {
			t.Fatalf("unexpected invoices: %+v %+v", got.Invoice, got.PreviousInvoice)
		}
		if got.FollowUpService.ScheduledAt == nil || !got.FollowUpService.ScheduledAt.Equal(booked) || got.FollowUpService.Schedulable() {
			t.Fatalf("unexpected follow-up: %+v", got.FollowUpService)
		}
	})

	t.Run("legacy spelling is normalised", func(t *testing.T) {
		o := sampleOrder()
		av := mustMarshal(t, o)
		av["status"] = &types.AttributeValueMemberS{Value: "CANCELLED"}
		repo := NewOrderDynamoRepository(&fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: av}}, "")
		got, err := repo.GetOrder(context.Background(), "ord-1")
		if err != nil || got.Status != entities.OrderStatusCanceled {
			t.Fatalf("expected CANCELED, got %s %v", got.Status, err)
		}
	})
}

func TestOrderDynamoRepository_SaveOrder(t *testing.T) {
	t.Run("conditions on the read version", func(t *testing.T) {
		fake := &fakeDynamo{}
		repo := NewOrderDynamoRepository(fake, "orders-test")
		saved, err := repo.SaveOrder(context.Background(), sampleOrder())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if saved.Version != 4 {
			t.Fatalf("expected version 4 got %d", saved.Version)
		}
		in := fake.puts[0]
		if aws.ToString(in.TableName) != "orders-test" {
			t.Fatalf("unexpected table %s", aws.ToString(in.TableName))
		}
		if aws.ToString(in.ConditionExpression) != "attribute_exists(#id) AND #version = :expected" {
			t.Fatalf("unexpected condition %s", aws.ToString(in.ConditionExpression))
		}
		if v := in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN).Value; v != "3" {
			t.Fatalf("expected condition on version 3, got %s", v)
		}
		if v := in.Item["version"].(*types.AttributeValueMemberN).Value; v != "4" {
			t.Fatalf("expected stored version 4, got %s", v)
		}
	})

	t.Run("conditional failure is a version conflict", func(t *testing.T) {
		fake := &fakeDynamo{putErr: &types.ConditionalCheckFailedException{Message: aws.String("nope")}}
		repo := NewOrderDynamoRepository(fake, "")
		_, err := repo.SaveOrder(context.Background(), sampleOrder())
		if !errors.Is(err, interfaces.ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("other errors pass through", func(t *testing.T) {
		fake := &fakeDynamo{putErr: errors.New("throttled")}
		repo := NewOrderDynamoRepository(fake, "")
		_, err := repo.SaveOrder(context.Background(), sampleOrder())
		if err == nil || err.Error() != "throttled" {
			t.Fatalf("expected throttled, got %v", err)
		}
	})
}

func TestOrderDynamoRepository_CreateOrder(t *testing.T) {
	fake := &fakeDynamo{}
	repo := NewOrderDynamoRepository(fake, "")
	o := sampleOrder()
	o.Version = 0
	created, err := repo.CreateOrder(context.Background(), o)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Version != 1 || aws.ToString(fake.puts[0].ConditionExpression) != "attribute_not_exists(#id)" {
		t.Fatalf("unexpected create: %+v", fake.puts[0])
	}

	fake.putErr = &types.ConditionalCheckFailedException{}
	if _, err := repo.CreateOrder(context.Background(), o); !errors.Is(err, interfaces.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestOrderDynamoRepository_ListOrdersForProviderPaginates(t *testing.T) {
	a, b := sampleOrder(), sampleOrder()
	b.ID = "ord-2"
	fake := &fakeDynamo{pages: []*dynamodb.QueryOutput{
		{Items: []map[string]types.AttributeValue{mustMarshal(t, a)}, LastEvaluatedKey: idKey("ord-1")},
		{Items: []map[string]types.AttributeValue{mustMarshal(t, b)}},
	}}
	repo := NewOrderDynamoRepository(fake, "")

	list, err := repo.ListOrdersForProvider(context.Background(), "prov-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[1].ID != "ord-2" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if len(fake.queries) != 2 || aws.ToString(fake.queries[0].IndexName) != ordersProviderIDIndex {
		t.Fatalf("unexpected queries: %+v", fake.queries)
	}
	if fake.queries[1].ExclusiveStartKey == nil {
		t.Fatalf("second page must start after the first")
	}
}

func TestAccountDynamoRepository_SetBlacklisted(t *testing.T) {
	t.Run("provider status follows the flag", func(t *testing.T) {
		stored, _ := attributevalue.MarshalMap(accountItem{ID: "prov-1", Kind: string(entities.AccountKindProvider), Status: entities.ProviderStatusActive})
		updated, _ := attributevalue.MarshalMap(accountItem{ID: "prov-1", Kind: string(entities.AccountKindProvider), IsBlacklisted: true, Status: entities.ProviderStatusBlacklisted})
		fake := &fakeDynamo{
			getOut:    &dynamodb.GetItemOutput{Item: stored},
			updateOut: &dynamodb.UpdateItemOutput{Attributes: updated},
		}
		repo := NewAccountDynamoRepository(fake, "")

		acct, err := repo.SetBlacklisted(context.Background(), "prov-1", true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !acct.IsBlacklisted || acct.Status != entities.ProviderStatusBlacklisted {
			t.Fatalf("unexpected account: %+v", acct)
		}
		in := fake.updates[0]
		if v := in.ExpressionAttributeValues[":status"].(*types.AttributeValueMemberS).Value; v != entities.ProviderStatusBlacklisted {
			t.Fatalf("unexpected status value %s", v)
		}
	})

	t.Run("customer has no status attribute", func(t *testing.T) {
		stored, _ := attributevalue.MarshalMap(accountItem{ID: "cust-1", Kind: string(entities.AccountKindCustomer)})
		fake := &fakeDynamo{
			getOut:    &dynamodb.GetItemOutput{Item: stored},
			updateOut: &dynamodb.UpdateItemOutput{Attributes: stored},
		}
		repo := NewAccountDynamoRepository(fake, "")

		if _, err := repo.SetBlacklisted(context.Background(), "cust-1", true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := fake.updates[0].ExpressionAttributeValues[":status"]; ok {
			t.Fatalf("customers must not get a provider status")
		}
	})

	t.Run("missing account", func(t *testing.T) {
		fake := &fakeDynamo{}
		repo := NewAccountDynamoRepository(fake, "")
		acct, err := repo.SetBlacklisted(context.Background(), "nope", true)
		if err != nil || acct.ID != "" || len(fake.updates) != 0 {
			t.Fatalf("expected no-op, got %+v %v", acct, err)
		}
	})
}
