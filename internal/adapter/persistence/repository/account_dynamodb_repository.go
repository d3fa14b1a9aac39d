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
	defaultAccountsTableName = "accounts"
	defaultServicesTableName = "services"
)

type accountItem struct {
	ID            string `dynamodbav:"id"`
	Kind          string `dynamodbav:"kind"`
	IsBlacklisted bool   `dynamodbav:"is_blacklisted"`
	Status        string `dynamodbav:"status,omitempty"`
	UpdatedAt     string `dynamodbav:"updated_at,omitempty"`
}

type serviceItem struct {
	ID         string `dynamodbav:"id"`
	ProviderID string `dynamodbav:"provider_id"`
	Category   string `dynamodbav:"category"`
	NameEN     string `dynamodbav:"name_en"`
	NameAR     string `dynamodbav:"name_ar"`
	Price      string `dynamodbav:"price"`
}

// AccountDynamoRepository reads customer/provider accounts and flips the blacklist flag.
//
// Table requirements:
//   - PK: id (string)
//
// Accounts are owned by the identity service; this repository never creates them.
type AccountDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
	clock     func() time.Time
}

var _ interfaces.IAccountRepository = (*AccountDynamoRepository)(nil)

func NewAccountDynamoRepository(ddb DynamoAPI, tableName string) *AccountDynamoRepository {
	return &AccountDynamoRepository{
		ddb:       ddb,
		tableName: orDefault(tableName, defaultAccountsTableName),
		clock:     time.Now,
	}
}

func (r *AccountDynamoRepository) GetAccount(ctx context.Context, id string) (entities.Account, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Account{}, err
	}
	if len(out.Item) == 0 {
		return entities.Account{}, nil
	}

	var it accountItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Account{}, err
	}
	return fromAccountItem(it), nil
}

// SetBlacklisted also maintains the provider status attribute.
func (r *AccountDynamoRepository) SetBlacklisted(ctx context.Context, id string, blacklisted bool) (entities.Account, error) {
	acct, err := r.GetAccount(ctx, id)
	if err != nil {
		return entities.Account{}, err
	}
	if acct.ID == "" {
		return entities.Account{}, nil
	}

	expr := "SET #is_blacklisted = :flag, #updated_at = :updated_at"
	names := map[string]string{
		"#id":             "id",
		"#is_blacklisted": "is_blacklisted",
		"#updated_at":     "updated_at",
	}
	values := map[string]types.AttributeValue{
		":flag":       &types.AttributeValueMemberBOOL{Value: blacklisted},
		":updated_at": &types.AttributeValueMemberS{Value: formatTime(r.clock())},
	}
	if acct.Kind == entities.AccountKindProvider {
		status := entities.ProviderStatusActive
		if blacklisted {
			status = entities.ProviderStatusBlacklisted
		}
		expr += ", #status = :status"
		names["#status"] = "status"
		values[":status"] = &types.AttributeValueMemberS{Value: status}
	}

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       idKey(id),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return entities.Account{}, nil
		}
		return entities.Account{}, err
	}

	var it accountItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Account{}, err
	}
	return fromAccountItem(it), nil
}

func fromAccountItem(it accountItem) entities.Account {
	return entities.Account{
		ID:            it.ID,
		Kind:          entities.AccountKind(it.Kind),
		IsBlacklisted: it.IsBlacklisted,
		Status:        it.Status,
		UpdatedAt:     parseTime(it.UpdatedAt),
	}
}

// ServiceDynamoRepository resolves services to their provider.
//
// Table requirements:
//   - PK: id (string)
type ServiceDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
}

var _ interfaces.IServiceRepository = (*ServiceDynamoRepository)(nil)

func NewServiceDynamoRepository(ddb DynamoAPI, tableName string) *ServiceDynamoRepository {
	return &ServiceDynamoRepository{ddb: ddb, tableName: orDefault(tableName, defaultServicesTableName)}
}

func (r *ServiceDynamoRepository) GetByID(ctx context.Context, id string) (entities.Service, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       idKey(id),
	})
	if err != nil {
		return entities.Service{}, err
	}
	if len(out.Item) == 0 {
		return entities.Service{}, nil
	}

	var it serviceItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Service{}, err
	}
	return entities.Service(it), nil
}
