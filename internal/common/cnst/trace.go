package cnst

// Tracer names used across the services
const (
	// TraceAPI is the tracer name for the HTTP API
	TraceAPI = "taskflow/api"
	// TraceTask is the tracer name for task lifecycle operations
	TraceTask = "taskflow/task"
	// TracePush is the tracer name for push delivery
	TracePush = "taskflow/push"
)

// Common span names
const (
	SpanTaskBulkCreate  = "task.bulk_create"
	SpanTaskMarkDone    = "task.mark_done"
	SpanTaskForceDone   = "task.force_done"
	SpanTaskSoftDelete  = "task.soft_delete"
	SpanIdentAllocate   = "ident.allocate"
	SpanPushDispatch    = "push.dispatch"
	SpanPushWorkerDeliv = "push.worker.deliver"
)

// Common attribute keys
const (
	AttrCompanySlug   = "taskflow.company"
	AttrTaskCode      = "taskflow.task_code"
	AttrTaskCount     = "taskflow.task_count"
	AttrActorID       = "taskflow.actor_id"
	AttrClientAddr    = "client.remote_addr"
	AttrClientUA      = "client.user_agent"
	AttrErrorReason   = "error.reason"
	AttrPushRecipient = "push.recipient"
)
