package repository

import (
	"context"
	"time"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	defaultOrdersTableName = "orders"
	ordersCustomerIDIndex  = "customer_id-index"
	ordersProviderIDIndex  = "provider_id-index"
)

type orderItem struct {
	ID              string               `dynamodbav:"id"`
	CustomerID      string               `dynamodbav:"customer_id"`
	ServiceID       string               `dynamodbav:"service_id"`
	ProviderID      string               `dynamodbav:"provider_id"`
	WorkerID        string               `dynamodbav:"worker_id,omitempty"`
	Status          string               `dynamodbav:"status"`
	ScheduledDate   string               `dynamodbav:"scheduled_date"`
	Notes           string               `dynamodbav:"notes,omitempty"`
	Invoice         *invoiceItem         `dynamodbav:"invoice,omitempty"`
	PreviousInvoice *invoiceItem         `dynamodbav:"previous_invoice,omitempty"`
	FollowUpService *followUpServiceItem `dynamodbav:"follow_up_service,omitempty"`
	Complaint       string               `dynamodbav:"complaint,omitempty"`
	Feedback        string               `dynamodbav:"feedback,omitempty"`
	Version         int64                `dynamodbav:"version"`
	CreatedAt       string               `dynamodbav:"created_at"`
	UpdatedAt       string               `dynamodbav:"updated_at"`
}

type invoiceItem struct {
	CreatedAt string         `dynamodbav:"created_at"`
	Items     []lineItemItem `dynamodbav:"items"`
}

type lineItemItem struct {
	NameEN string `dynamodbav:"name_en"`
	NameAR string `dynamodbav:"name_ar"`
	Price  string `dynamodbav:"price"`
}

type followUpServiceItem struct {
	Category      string `dynamodbav:"category"`
	NameEN        string `dynamodbav:"name_en"`
	NameAR        string `dynamodbav:"name_ar"`
	DescriptionEN string `dynamodbav:"description_en,omitempty"`
	DescriptionAR string `dynamodbav:"description_ar,omitempty"`
	Price         string `dynamodbav:"price"`
	ScheduledAt   string `dynamodbav:"scheduled_at,omitempty"`
}

// OrderDynamoRepository persists Order entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: customer_id-index (PK: customer_id)
//   - GSI: provider_id-index (PK: provider_id)
//
// Every write is conditioned on the version attribute it was read at.
type OrderDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
}

var _ interfaces.IOrderRepository = (*OrderDynamoRepository)(nil)

func NewOrderDynamoRepository(ddb DynamoAPI, tableName string) *OrderDynamoRepository {
	return &OrderDynamoRepository{
		ddb:       ddb,
		tableName: orDefault(tableName, defaultOrdersTableName),
	}
}

func (r *OrderDynamoRepository) GetOrder(ctx context.Context, id string) (entities.Order, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Order{}, err
	}
	if len(out.Item) == 0 {
		return entities.Order{}, nil
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Order{}, err
	}
	return fromOrderItem(it), nil
}

func (r *OrderDynamoRepository) CreateOrder(ctx context.Context, o entities.Order) (entities.Order, error) {
	if o.Version == 0 {
		o.Version = 1
	}
	av, err := attributevalue.MarshalMap(toOrderItem(o))
	if err != nil {
		return entities.Order{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return entities.Order{}, interfaces.ErrVersionConflict
		}
		return entities.Order{}, err
	}
	return o, nil
}

func (r *OrderDynamoRepository) SaveOrder(ctx context.Context, o entities.Order) (entities.Order, error) {
	expected := o.Version
	o.Version++
	av, err := attributevalue.MarshalMap(toOrderItem(o))
	if err != nil {
		return entities.Order{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_exists(#id) AND #version = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#id":      "id",
			"#version": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: formatInt(expected)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return entities.Order{}, interfaces.ErrVersionConflict
		}
		return entities.Order{}, err
	}
	return o, nil
}

func (r *OrderDynamoRepository) ListOrdersForCustomer(ctx context.Context, customerID string) ([]entities.Order, error) {
	return r.queryIndex(ctx, ordersCustomerIDIndex, "customer_id", customerID)
}

// ListOrdersForProvider relies on provider_id being denormalized onto each order at placement.
func (r *OrderDynamoRepository) ListOrdersForProvider(ctx context.Context, providerID string) ([]entities.Order, error) {
	return r.queryIndex(ctx, ordersProviderIDIndex, "provider_id", providerID)
}

func (r *OrderDynamoRepository) queryIndex(ctx context.Context, index, attr, value string) ([]entities.Order, error) {
	p := dynamodb.NewQueryPaginator(r.ddb, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String("#k = :v"),
		ExpressionAttributeNames: map[string]string{
			"#k": attr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
		},
	})

	orders := []entities.Order{}
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range out.Items {
			var it orderItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			orders = append(orders, fromOrderItem(it))
		}
	}
	return orders, nil
}

func toOrderItem(o entities.Order) orderItem {
	it := orderItem{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		ServiceID:     o.ServiceID,
		ProviderID:    o.ProviderID,
		WorkerID:      o.WorkerID,
		Status:        string(o.Status),
		ScheduledDate: formatTime(o.ScheduledDate),
		Notes:         o.Notes,
		Complaint:     o.Complaint,
		Feedback:      o.Feedback,
		Version:       o.Version,
		CreatedAt:     formatTime(o.CreatedAt),
		UpdatedAt:     formatTime(o.UpdatedAt),
	}
	it.Invoice = toInvoiceItem(o.Invoice)
	it.PreviousInvoice = toInvoiceItem(o.PreviousInvoice)
	if f := o.FollowUpService; f != nil {
		it.FollowUpService = &followUpServiceItem{
			Category:      f.Category,
			NameEN:        f.NameEN,
			NameAR:        f.NameAR,
			DescriptionEN: f.DescriptionEN,
			DescriptionAR: f.DescriptionAR,
			Price:         f.Price,
		}
		if f.ScheduledAt != nil {
			it.FollowUpService.ScheduledAt = formatTime(*f.ScheduledAt)
		}
	}
	return it
}

func toInvoiceItem(inv *entities.Invoice) *invoiceItem {
	if inv == nil {
		return nil
	}
	out := &invoiceItem{CreatedAt: formatTime(inv.CreatedAt)}
	for _, li := range inv.Items {
		out.Items = append(out.Items, lineItemItem(li))
	}
	return out
}

func fromInvoiceItem(it *invoiceItem) *entities.Invoice {
	if it == nil {
		return nil
	}
	out := &entities.Invoice{CreatedAt: parseTime(it.CreatedAt)}
	for _, li := range it.Items {
		out.Items = append(out.Items, entities.InvoiceLineItem(li))
	}
	return out
}

func fromOrderItem(it orderItem) entities.Order {
	status, ok := entities.ParseOrderStatus(it.Status)
	if !ok {
		status = entities.OrderStatus(it.Status)
	}
	o := entities.Order{
		ID:            it.ID,
		CustomerID:    it.CustomerID,
		ServiceID:     it.ServiceID,
		ProviderID:    it.ProviderID,
		WorkerID:      it.WorkerID,
		Status:        status,
		ScheduledDate: parseTime(it.ScheduledDate),
		Notes:         it.Notes,
		Complaint:     it.Complaint,
		Feedback:      it.Feedback,
		Version:       it.Version,
		CreatedAt:     parseTime(it.CreatedAt),
		UpdatedAt:     parseTime(it.UpdatedAt),
	}
	o.Invoice = fromInvoiceItem(it.Invoice)
	o.PreviousInvoice = fromInvoiceItem(it.PreviousInvoice)
	if f := it.FollowUpService; f != nil {
		o.FollowUpService = &entities.FollowUpService{
			Category:      f.Category,
			NameEN:        f.NameEN,
			NameAR:        f.NameAR,
			DescriptionEN: f.DescriptionEN,
			DescriptionAR: f.DescriptionAR,
			Price:         f.Price,
		}
		if f.ScheduledAt != "" {
			at := parseTime(f.ScheduledAt)
			o.FollowUpService.ScheduledAt = &at
		}
	}
	return o
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
