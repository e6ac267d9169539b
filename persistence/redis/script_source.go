package redis

import (
	"context"
	"errors"
	"fmt"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/scriptproc/persistence"
	"github.com/mohitkumar/scriptproc/script"
)

var _ script.Source = new(redisScriptSource)

// redisScriptSource reads the script body stored at <namespace>:SCRIPT:<name>
// on every Load, so an update in redis takes effect on the next trigger.
type redisScriptSource struct {
	*baseDao
	name string
}

func NewRedisScriptSource(conf Config, name string) *redisScriptSource {
	return &redisScriptSource{
		baseDao: newBaseDao(conf),
		name:    name,
	}
}

func (rs *redisScriptSource) key() string {
	return rs.getNamespaceKey(persistence.SCRIPT_PREFIX, rs.name)
}

func (rs *redisScriptSource) Load(ctx context.Context) (*script.Script, error) {
	code, err := rs.redisClient.Get(ctx, rs.key()).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, fmt.Errorf("script %s not found", rs.name)
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return &script.Script{Name: rs.name, Code: code}, nil
}

func (rs *redisScriptSource) Save(ctx context.Context, code string) error {
	if err := rs.redisClient.Set(ctx, rs.key(), code, 0).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
