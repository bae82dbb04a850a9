package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/GoPolymarket/opa/internal/model"
	"github.com/redis/go-redis/v9"
)

// appendScript assigns the id and server timestamp and pushes the record in
// one step, so list order always matches (created_at, id).
var appendScript = redis.NewScript(`
local id = redis.call('INCR', KEYS[2])
local t = redis.call('TIME')
local us = t[1] .. string.rep('0', 6 - string.len(t[2])) .. t[2]
local payload = '{"id":' .. id .. ',"ts":"' .. us .. '","entry":' .. ARGV[1] .. '}'
redis.call('LPUSH', KEYS[1], payload)
redis.call('LTRIM', KEYS[1], 0, tonumber(ARGV[2]) - 1)
return id
`)

type RedisAuditRepo struct {
	client  *RedisClient
	listKey string
	seqKey  string
	listMax int
}

type redisAuditEntry struct {
	OrderID    int64        `json:"order_id"`
	ProductSKU string       `json:"product_sku"`
	Quantity   int          `json:"quantity"`
	Status     model.Status `json:"status"`
	Message    string       `json:"message"`
}

type redisAuditRecord struct {
	ID    int64           `json:"id"`
	TS    string          `json:"ts"`
	Entry redisAuditEntry `json:"entry"`
}

func NewRedisAuditRepo(client *RedisClient, listKey string, listMax int) *RedisAuditRepo {
	if listKey == "" {
		listKey = "opa:line_item_logs"
	}
	if listMax <= 0 {
		listMax = 10000
	}
	return &RedisAuditRepo{
		client:  client,
		listKey: listKey,
		seqKey:  listKey + ":seq",
		listMax: listMax,
	}
}

func (r *RedisAuditRepo) Append(ctx context.Context, entry model.NewAuditLogEntry) (int64, error) {
	if err := entry.Validate(); err != nil {
		return 0, err
	}
	payload, err := json.Marshal(redisAuditEntry{
		OrderID:    entry.OrderID,
		ProductSKU: entry.ProductSKU,
		Quantity:   entry.Quantity,
		Status:     entry.Status,
		Message:    entry.Message,
	})
	if err != nil {
		return 0, err
	}
	id, err := appendScript.Run(ctx, r.client.Client, []string{r.listKey, r.seqKey}, string(payload), r.listMax).Int64()
	if err != nil {
		return 0, fmt.Errorf("append audit entry: %w", err)
	}
	return id, nil
}

func (r *RedisAuditRepo) Recent(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	limit = model.NormalizeLimit(limit)
	items, err := r.client.Client.LRange(ctx, r.listKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read audit list: %w", err)
	}
	results := make([]model.AuditLogEntry, 0, len(items))
	for _, raw := range items {
		var rec redisAuditRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		us, err := strconv.ParseInt(rec.TS, 10, 64)
		if err != nil {
			continue
		}
		results = append(results, model.AuditLogEntry{
			ID:         rec.ID,
			OrderID:    rec.Entry.OrderID,
			ProductSKU: rec.Entry.ProductSKU,
			Quantity:   rec.Entry.Quantity,
			Status:     rec.Entry.Status,
			Message:    rec.Entry.Message,
			CreatedAt:  time.UnixMicro(us).UTC(),
		})
	}
	// the server clock can step backwards
	sort.SliceStable(results, func(i, j int) bool { return results[i].Less(results[j]) })
	return results, nil
}

func (r *RedisAuditRepo) Drop(ctx context.Context) error {
	return r.client.Client.Del(ctx, r.listKey, r.seqKey).Err()
}
