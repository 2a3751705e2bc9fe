package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"group-chat-service/internal/models"
)

const (
	// GroupAvailableKey is the list of group names in creation order. The
	// spelling matches the keys already written by deployed instances.
	GroupAvailableKey = "group:avaliable"
	// GroupInfosKey is the hash of group name to serialized models.GroupInfo.
	GroupInfosKey = "group:infos"

	maxTxRetries = 16
)

var errTxContention = errors.New("too many concurrent writers")

// GroupRepository abstracts the group registry.
type GroupRepository interface {
	ListGroups(ctx context.Context) ([]string, error)
	GroupExists(ctx context.Context, name string) (bool, error)
	CreateGroup(ctx context.Context, name, owner string) (models.GroupInfo, error)
	GetGroupInfo(ctx context.Context, name string) (models.GroupInfo, error)
	AdjustUserCount(ctx context.Context, name string, delta int) (models.GroupInfo, error)
}

// GroupRepo is a Redis implementation of GroupRepository.
type GroupRepo struct {
	rdb    *redis.Client
	logger *zap.SugaredLogger
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(rdb *redis.Client, logger *zap.SugaredLogger) *GroupRepo {
	return &GroupRepo{rdb: rdb, logger: logger}
}

// ListGroups returns every group name in insertion order.
func (r *GroupRepo) ListGroups(ctx context.Context) ([]string, error) {
	groups, err := listGroups(ctx, r.rdb)
	if err != nil {
		return nil, models.StorageError("list groups", err)
	}
	return groups, nil
}

// GroupExists checks the name list, which is the only authority on existence.
func (r *GroupRepo) GroupExists(ctx context.Context, name string) (bool, error) {
	exists, err := groupListed(ctx, r.rdb, name)
	if err != nil {
		return false, models.StorageError("check group", err)
	}
	return exists, nil
}

// CreateGroup registers name with owner as its first user. The existence
// check and both writes happen under one WATCH so racing creators cannot
// both succeed.
func (r *GroupRepo) CreateGroup(ctx context.Context, name, owner string) (models.GroupInfo, error) {
	info := models.NewGroupInfo(owner)
	payload, err := json.Marshal(info)
	if err != nil {
		return models.GroupInfo{}, models.StorageError("encode group info", err)
	}

	err = r.watch(ctx, func(tx *redis.Tx) error {
		exists, err := groupListed(ctx, tx, name)
		if err != nil {
			return err
		}
		if exists {
			return models.ErrGroupExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, GroupInfosKey, name, string(payload))
			pipe.RPush(ctx, GroupAvailableKey, name)
			return nil
		})
		return err
	}, GroupAvailableKey, GroupInfosKey)
	if err != nil {
		return models.GroupInfo{}, err
	}

	r.logger.Debugf("Created group (%s) owned by %s", name, owner)
	return info, nil
}

// GetGroupInfo reads the metadata of an existing group.
func (r *GroupRepo) GetGroupInfo(ctx context.Context, name string) (models.GroupInfo, error) {
	exists, err := r.GroupExists(ctx, name)
	if err != nil {
		return models.GroupInfo{}, err
	}
	if !exists {
		return models.GroupInfo{}, models.ErrGroupNotFound
	}

	info, err := readGroupInfo(ctx, r.rdb, name)
	if err != nil {
		return models.GroupInfo{}, models.StorageError("read group info", err)
	}
	return info, nil
}

// AdjustUserCount adds delta to totalUsers. The read-modify-write runs as an
// optimistic transaction on the metadata hash and is retried on conflict, so
// concurrent adjustments are never lost.
func (r *GroupRepo) AdjustUserCount(ctx context.Context, name string, delta int) (models.GroupInfo, error) {
	var info models.GroupInfo
	err := r.watch(ctx, func(tx *redis.Tx) error {
		current, err := readGroupInfo(ctx, tx, name)
		if err != nil {
			return err
		}
		current.TotalUsers += delta
		payload, err := json.Marshal(current)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, GroupInfosKey, name, string(payload))
			return nil
		})
		if err == nil {
			info = current
		}
		return err
	}, GroupInfosKey)
	if err != nil {
		return models.GroupInfo{}, err
	}

	r.logger.Debugf("Adjusted users of group (%s) by %d to %d", name, delta, info.TotalUsers)
	return info, nil
}

func (r *GroupRepo) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := r.rdb.Watch(ctx, fn, keys...)
		if err == nil {
			return nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		var domainErr *models.Error
		if errors.As(err, &domainErr) {
			return err
		}
		return models.StorageError("group transaction", err)
	}
	return models.StorageError("group transaction", errTxContention)
}

func listGroups(ctx context.Context, c redis.Cmdable) ([]string, error) {
	groups, err := c.LRange(ctx, GroupAvailableKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []string{}
	}
	return groups, nil
}

func groupListed(ctx context.Context, c redis.Cmdable, name string) (bool, error) {
	groups, err := listGroups(ctx, c)
	if err != nil {
		return false, err
	}
	for _, g := range groups {
		if g == name {
			return true, nil
		}
	}
	return false, nil
}

func readGroupInfo(ctx context.Context, c redis.Cmdable, name string) (models.GroupInfo, error) {
	raw, err := c.HGet(ctx, GroupInfosKey, name).Result()
	if errors.Is(err, redis.Nil) {
		return models.GroupInfo{}, errors.New("group metadata missing for " + name)
	}
	if err != nil {
		return models.GroupInfo{}, err
	}
	var info models.GroupInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return models.GroupInfo{}, err
	}
	return info, nil
}
