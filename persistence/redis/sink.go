package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/scriptproc/logger"
	"github.com/mohitkumar/scriptproc/model"
	"github.com/mohitkumar/scriptproc/persistence"
	"github.com/mohitkumar/scriptproc/session"
	"go.uber.org/zap"
)

var _ session.Sink = new(redisSink)

// redisSink pushes committed FlowFiles, JSON encoded, onto one list per
// relationship: <namespace>:REL:<processor>:<relationship>.
type redisSink struct {
	*baseDao
	processor string
}

func NewRedisSink(conf Config, processor string) *redisSink {
	return &redisSink{
		baseDao:   newBaseDao(conf),
		processor: processor,
	}
}

func (rs *redisSink) relationshipKey(rel model.Relationship) string {
	return rs.getNamespaceKey(persistence.RELATIONSHIP_PREFIX, rs.processor, rel.Name)
}

func (rs *redisSink) Deliver(rel model.Relationship, ffs []*model.FlowFile) error {
	if len(ffs) == 0 {
		return nil
	}
	key := rs.relationshipKey(rel)
	values := make([]any, 0, len(ffs))
	for _, ff := range ffs {
		data, err := encodeRouted(rs.processor, rel, ff)
		if err != nil {
			return err
		}
		values = append(values, data)
	}
	ctx := context.Background()
	if err := rs.redisClient.RPush(ctx, key, values...).Err(); err != nil {
		logger.Error("error while push to redis list", zap.String("key", key), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

// Drain pops up to count FlowFiles routed to rel, oldest first.
func (rs *redisSink) Drain(rel model.Relationship, count int) ([]*model.FlowFile, error) {
	key := rs.relationshipKey(rel)
	ctx := context.Background()
	res, err := rs.redisClient.LPopCount(ctx, key, count).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return []*model.FlowFile{}, nil
		}
		logger.Error("error while pop from redis list", zap.String("key", key), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	out := make([]*model.FlowFile, 0, len(res))
	for _, r := range res {
		routed, err := decodeRouted([]byte(r))
		if err != nil {
			return nil, err
		}
		out = append(out, routed.FlowFile)
	}
	return out, nil
}
