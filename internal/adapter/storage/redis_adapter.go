package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/warehub/stocktrack/internal/core/domain"
)

const (
	inventoryKeyPrefix = "inventory:"
	salesKeyPrefix     = "sales:"
	scoreKeyPrefix     = "oee:"
	lowStockKey        = "lowstock:zset"
	eventStreamKey     = "inventory:events"

	defaultSalesRetention = 24 * time.Hour
	defaultScoreTTL       = time.Minute
)

// addStockScript creates the record with defaults on first sight of a SKU,
// then applies the increment. Returns {newQuantity, threshold}.
var addStockScript = redis.NewScript(`
local key = KEYS[1]
if redis.call('EXISTS', key) == 0 then
	redis.call('HSET', key,
		'sku', ARGV[2],
		'name', ARGV[3],
		'qty', 0,
		'max_capacity', ARGV[4],
		'threshold', ARGV[5],
		'shelf', ARGV[6],
		'zone', ARGV[7],
		'cost', ARGV[8],
		'price', ARGV[9],
		'created_at', ARGV[10])
end
local qty = redis.call('HINCRBY', key, 'qty', ARGV[1])
redis.call('HSET', key, 'last_updated', ARGV[10])
local threshold = tonumber(redis.call('HGET', key, 'threshold'))
return {qty, threshold}
`)

// removeStockScript refuses to drive the quantity negative. Returns
// {-2, 0} for an unknown SKU, {-1, current} when stock is insufficient,
// {newQuantity, threshold} on success.
var removeStockScript = redis.NewScript(`
local key = KEYS[1]
if redis.call('EXISTS', key) == 0 then
	return {-2, 0}
end
local current = tonumber(redis.call('HGET', key, 'qty') or '0')
local quantity = tonumber(ARGV[1])
if current < quantity then
	return {-1, current}
end
local qty = redis.call('HINCRBY', key, 'qty', -quantity)
redis.call('HSET', key, 'last_updated', ARGV[2])
local threshold = tonumber(redis.call('HGET', key, 'threshold'))
return {qty, threshold}
`)

// RedisAdapter implements every storage port on the four engine
// primitives: hashes, one sorted set, one stream, and TTL'd hashes for
// the hourly sales buckets.
type RedisAdapter struct {
	client         *redis.Client
	salesRetention time.Duration
	scoreTTL       time.Duration
}

func NewRedisAdapter(client *redis.Client, salesRetention, scoreTTL time.Duration) *RedisAdapter {
	if salesRetention <= 0 {
		salesRetention = defaultSalesRetention
	}
	if scoreTTL <= 0 {
		scoreTTL = defaultScoreTTL
	}
	return &RedisAdapter{
		client:         client,
		salesRetention: salesRetention,
		scoreTTL:       scoreTTL,
	}
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return wrapStorageErr("ping", err)
	}
	return nil
}

func (r *RedisAdapter) AddStock(ctx context.Context, sku string, quantity int64, defaults domain.ProductDefaults) (domain.StockLevel, error) {
	d := defaults.Normalized(sku)
	now := time.Now().UTC().Format(time.RFC3339)

	res, err := addStockScript.Run(ctx, r.client, []string{inventoryKey(sku)},
		quantity, sku, d.Name, d.MaxCapacity, d.Threshold, d.Shelf, d.Zone, d.Cost, d.Price, now,
	).Int64Slice()
	if err != nil {
		return domain.StockLevel{}, wrapStorageErr("add stock", err)
	}
	if len(res) != 2 {
		return domain.StockLevel{}, wrapStorageErr("add stock", fmt.Errorf("unexpected script reply length %d", len(res)))
	}

	return domain.StockLevel{Quantity: res[0], Threshold: res[1]}, nil
}

func (r *RedisAdapter) RemoveStock(ctx context.Context, sku string, quantity int64) (domain.StockLevel, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	res, err := removeStockScript.Run(ctx, r.client, []string{inventoryKey(sku)}, quantity, now).Int64Slice()
	if err != nil {
		return domain.StockLevel{}, wrapStorageErr("remove stock", err)
	}
	if len(res) != 2 {
		return domain.StockLevel{}, wrapStorageErr("remove stock", fmt.Errorf("unexpected script reply length %d", len(res)))
	}

	switch res[0] {
	case -2:
		return domain.StockLevel{}, domain.ErrProductNotFound
	case -1:
		return domain.StockLevel{}, fmt.Errorf("%w: available %d, requested %d", domain.ErrInsufficientStock, res[1], quantity)
	}

	return domain.StockLevel{Quantity: res[0], Threshold: res[1]}, nil
}

func (r *RedisAdapter) GetProduct(ctx context.Context, sku string) (*domain.Product, error) {
	fields, err := r.client.HGetAll(ctx, inventoryKey(sku)).Result()
	if err != nil {
		return nil, wrapStorageErr("get product", err)
	}
	if fields["sku"] == "" {
		return nil, domain.ErrProductNotFound
	}
	return parseProduct(fields), nil
}

func (r *RedisAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, inventoryKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if key := iter.Val(); key != eventStreamKey {
			keys = append(keys, key)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, wrapStorageErr("scan products", err)
	}
	if len(keys) == 0 {
		return []domain.Product{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGetAll(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, wrapStorageErr("load products", err)
	}

	products := make([]domain.Product, 0, len(keys))
	for _, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || fields["sku"] == "" {
			continue
		}
		products = append(products, *parseProduct(fields))
	}
	return products, nil
}

// Update keeps the sorted set consistent with the record: members are the
// SKUs at or below threshold, scored by negated quantity so the most
// depleted SKU carries the highest score.
func (r *RedisAdapter) Update(ctx context.Context, sku string, quantity, threshold int64) error {
	if quantity <= threshold {
		err := r.client.ZAdd(ctx, lowStockKey, redis.Z{Score: float64(-quantity), Member: sku}).Err()
		if err != nil {
			return wrapStorageErr("low-stock upsert", err)
		}
		return nil
	}
	if err := r.client.ZRem(ctx, lowStockKey, sku).Err(); err != nil {
		return wrapStorageErr("low-stock remove", err)
	}
	return nil
}

func (r *RedisAdapter) Range(ctx context.Context, limit int64) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	// Highest score first: least negative score means lowest quantity.
	skus, err := r.client.ZRevRange(ctx, lowStockKey, 0, limit-1).Result()
	if err != nil {
		return nil, wrapStorageErr("low-stock range", err)
	}
	return skus, nil
}

func (r *RedisAdapter) Append(ctx context.Context, event domain.InventoryEvent) (string, error) {
	values := map[string]interface{}{
		"sku":       event.SKU,
		"action":    event.Action,
		"quantity":  event.Quantity,
		"timestamp": event.Timestamp.UTC().Format(time.RFC3339),
	}
	if event.RequestID != "" {
		values["request_id"] = event.RequestID
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: eventStreamKey,
		Values: values,
	}).Result()
	if err != nil {
		return "", wrapStorageErr("event append", err)
	}
	return id, nil
}

func (r *RedisAdapter) RecordSale(ctx context.Context, sku string, quantity int64, at time.Time) error {
	key := salesKey(sku, at)
	pipe := r.client.Pipeline()
	pipe.HIncrBy(ctx, key, "quantity", quantity)
	pipe.Expire(ctx, key, r.salesRetention)
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapStorageErr("record sale", err)
	}
	return nil
}

func (r *RedisAdapter) SalesForHour(ctx context.Context, sku string, at time.Time) (int64, error) {
	val, err := r.client.HGet(ctx, salesKey(sku, at), "quantity").Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, wrapStorageErr("read sales", err)
	}
	sold, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, wrapStorageErr("read sales", err)
	}
	return sold, nil
}

func (r *RedisAdapter) Get(ctx context.Context, sku string) (*domain.EfficiencyScore, error) {
	fields, err := r.client.HGetAll(ctx, scoreKey(sku)).Result()
	if err != nil {
		return nil, wrapStorageErr("read score cache", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	ts, _ := time.Parse(time.RFC3339, fields["timestamp"])
	return &domain.EfficiencyScore{
		SKU:          fields["sku"],
		Availability: parseFloat(fields["availability"]),
		Performance:  parseFloat(fields["performance"]),
		Quality:      parseFloat(fields["quality"]),
		Overall:      parseFloat(fields["overall"]),
		Timestamp:    ts,
	}, nil
}

func (r *RedisAdapter) Set(ctx context.Context, score domain.EfficiencyScore) error {
	key := scoreKey(score.SKU)
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"sku":          score.SKU,
		"availability": score.Availability,
		"performance":  score.Performance,
		"quality":      score.Quality,
		"overall":      score.Overall,
		"timestamp":    score.Timestamp.UTC().Format(time.RFC3339),
	})
	pipe.Expire(ctx, key, r.scoreTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapStorageErr("write score cache", err)
	}
	return nil
}

func inventoryKey(sku string) string {
	return inventoryKeyPrefix + sku
}

func salesKey(sku string, at time.Time) string {
	return fmt.Sprintf("%s%s:%s", salesKeyPrefix, sku, at.UTC().Format("2006-01-02T15"))
}

func scoreKey(sku string) string {
	return scoreKeyPrefix + sku
}

func parseProduct(fields map[string]string) *domain.Product {
	createdAt, _ := time.Parse(time.RFC3339, fields["created_at"])
	updatedAt, _ := time.Parse(time.RFC3339, fields["last_updated"])
	return &domain.Product{
		SKU:           fields["sku"],
		Name:          fields["name"],
		Quantity:      parseInt(fields["qty"]),
		MaxCapacity:   parseInt(fields["max_capacity"]),
		Threshold:     parseInt(fields["threshold"]),
		Shelf:         fields["shelf"],
		Zone:          fields["zone"],
		Cost:          parseFloat(fields["cost"]),
		Price:         parseFloat(fields["price"]),
		CreatedAt:     createdAt,
		LastUpdatedAt: updatedAt,
	}
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// wrapStorageErr tags engine failures so the transport layer can report
// them as storage unavailability instead of leaking client internals.
func wrapStorageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageUnavailable, op, err)
}
