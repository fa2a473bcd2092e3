package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"feedwatch/internal/resilience/circuitbreaker"
)

// breakerAPI routes every table call through a circuit breaker so that a
// throttled or unreachable table fails fast instead of stalling each feed.
type breakerAPI struct {
	next API
	cb   *circuitbreaker.CircuitBreaker
}

// WithCircuitBreaker wraps api with cb. A nil cb gets circuitbreaker.DynamoConfig.
func WithCircuitBreaker(api API, cb *circuitbreaker.CircuitBreaker) API {
	if cb == nil {
		cb = circuitbreaker.New(circuitbreaker.DynamoConfig())
	}
	return &breakerAPI{next: api, cb: cb}
}

func guarded[T any](cb *circuitbreaker.CircuitBreaker, fn func() (*T, error)) (*T, error) {
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return out.(*T), nil
}

func (b *breakerAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return guarded(b.cb, func() (*dynamodb.GetItemOutput, error) {
		return b.next.GetItem(ctx, in, optFns...)
	})
}

func (b *breakerAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return guarded(b.cb, func() (*dynamodb.PutItemOutput, error) {
		return b.next.PutItem(ctx, in, optFns...)
	})
}

func (b *breakerAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return guarded(b.cb, func() (*dynamodb.DeleteItemOutput, error) {
		return b.next.DeleteItem(ctx, in, optFns...)
	})
}

func (b *breakerAPI) Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return guarded(b.cb, func() (*dynamodb.ScanOutput, error) {
		return b.next.Scan(ctx, in, optFns...)
	})
}
