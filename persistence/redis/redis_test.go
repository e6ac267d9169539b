package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/scriptproc/model"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	conf := Config{
		Addrs:     []string{"localhost:6379"},
		Namespace: "scriptproc-test-" + uuid.NewString(),
	}
	dao := newBaseDao(conf)
	defer dao.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := dao.redisClient.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	return conf
}

func TestNamespaceKey(t *testing.T) {
	dao := newBaseDao(Config{Addrs: []string{"localhost:6379"}, Namespace: "ns"})
	defer dao.Close()
	require.Equal(t, "ns:REL:proc:success", dao.getNamespaceKey("REL", "proc", "success"))
}

func TestRedisSink(t *testing.T) {
	conf := testConfig(t)
	sink := NewRedisSink(conf, "proc")
	defer sink.Close()

	a := model.NewFlowFile([]byte("a"), map[string]string{"k": "1"})
	b := model.NewFlowFile([]byte("b"), nil)
	require.NoError(t, sink.Deliver(model.Success, []*model.FlowFile{a, b}))

	out, err := sink.Drain(model.Success, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, a.Id, out[0].Id)
	require.Equal(t, "1", out[0].GetAttribute("k"))
	require.Equal(t, "b", string(out[1].Content))

	out, err = sink.Drain(model.Failure, 10)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestRedisScriptSource(t *testing.T) {
	conf := testConfig(t)
	src := NewRedisScriptSource(conf, "route.js")
	defer src.Close()
	ctx := context.Background()

	_, err := src.Load(ctx)
	require.Error(t, err)

	require.NoError(t, src.Save(ctx, "session.transfer(session.get(), REL_SUCCESS);"))
	s, err := src.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "route.js", s.Name)
	require.Contains(t, s.Code, "REL_SUCCESS")
}
