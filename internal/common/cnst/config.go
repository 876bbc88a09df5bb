package cnst

const (
	TaskflowYaml   = "taskflow.yaml"
	PushWorkerYaml = "push-worker.yaml"
)

const (
	RedisClusterTypeSentinel = "sentinel"
	RedisClusterTypeCluster  = "cluster"
	RedisClusterTypeSingle   = "single"
)

const (
	DatabaseTypePostgres = "postgres"
	DatabaseTypeMySQL    = "mysql"
	DatabaseTypeSQLite   = "sqlite"
)

const (
	// CounterStoreDatabase allocates task numbers from the relational store
	CounterStoreDatabase = "database"
	// CounterStoreRedis allocates task numbers with an atomic redis increment
	CounterStoreRedis = "redis"
)

const (
	// TaskNumSequence is the postgres sequence backing task numbers
	TaskNumSequence = "task_num_seq"
	// TaskNumCounter is the counter row name used on stores without sequences
	TaskNumCounter = "task_num"
	// DefaultPushQueueKey is the redis list that carries push jobs
	DefaultPushQueueKey = "taskflow:push:queue"
	// DefaultSessionCookie carries the bearer token for browser clients
	DefaultSessionCookie = "taskflow_session"
)
