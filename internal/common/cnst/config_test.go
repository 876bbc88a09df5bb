package cnst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "taskflow.yaml", TaskflowYaml)
	assert.Equal(t, "push-worker.yaml", PushWorkerYaml)
	assert.Equal(t, "taskflow:push:queue", DefaultPushQueueKey)
}

func TestRedisClusterTypeConstants(t *testing.T) {
	assert.Equal(t, "sentinel", RedisClusterTypeSentinel)
	assert.Equal(t, "cluster", RedisClusterTypeCluster)
	assert.Equal(t, "single", RedisClusterTypeSingle)
}
