package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"group-chat-service/internal/models"
)

// DefaultRetention is how long a group log lives after its first message.
const DefaultRetention = 24 * time.Hour

// GroupMessageRepository defines interactions for group messages.
type GroupMessageRepository interface {
	AppendMessage(ctx context.Context, group string, msg models.Message) error
	ListGroupMessages(ctx context.Context, group string) ([]models.Message, error)
}

// GroupMessageRepo stores each group log in a Redis sorted set scored by send time.
type GroupMessageRepo struct {
	rdb       *redis.Client
	logger    *zap.SugaredLogger
	retention time.Duration
}

// NewGroupMessageRepo constructs a GroupMessageRepo. A non-positive retention
// falls back to DefaultRetention.
func NewGroupMessageRepo(rdb *redis.Client, logger *zap.SugaredLogger, retention time.Duration) *GroupMessageRepo {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &GroupMessageRepo{rdb: rdb, logger: logger, retention: retention}
}

// MessagesKey returns the sorted-set key holding the log of group.
func MessagesKey(group string) string {
	return fmt.Sprintf("group:%s:messages", group)
}

// AppendMessage inserts msg into the group log. The expiry is only set when
// the log did not exist yet, so the window stays anchored on the first message.
func (r *GroupMessageRepo) AppendMessage(ctx context.Context, group string, msg models.Message) error {
	key := MessagesKey(group)
	payload, err := json.Marshal(msg)
	if err != nil {
		return models.StorageError("encode message", err)
	}

	existed, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return models.StorageError("check message log", err)
	}

	added, err := r.rdb.ZAdd(ctx, key, &redis.Z{Score: msg.Score(), Member: string(payload)}).Result()
	if err != nil {
		return models.StorageError("couldn't save message in database", err)
	}

	if existed == 0 {
		if err := r.rdb.Expire(ctx, key, r.retention).Err(); err != nil {
			return models.StorageError("set message log expiry", err)
		}
		r.logger.Debugf("Started message log for group (%s) expiring in %s", group, r.retention)
	}

	if added == 0 {
		return models.StorageError("couldn't save message in database", nil)
	}
	return nil
}

// ListGroupMessages returns the whole log ordered by send time.
func (r *GroupMessageRepo) ListGroupMessages(ctx context.Context, group string) ([]models.Message, error) {
	raw, err := r.rdb.ZRange(ctx, MessagesKey(group), 0, -1).Result()
	if err != nil {
		return nil, models.StorageError("read message log", err)
	}

	msgs := make([]models.Message, 0, len(raw))
	for _, item := range raw {
		var msg models.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, models.StorageError("decode message", err)
		}
		msgs = append(msgs, msg)
	}

	// store order follows the score; ties and skewed scores are settled by sentAt
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SentAt.Before(msgs[j].SentAt)
	})
	return msgs, nil
}
