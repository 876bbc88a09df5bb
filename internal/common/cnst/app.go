package cnst

const (
	AppName     = "taskflow"
	CommandName = "taskflow"
	WorkerName  = "push-worker"
)

const (
	// DateLayout is the wire and storage format of task dates
	DateLayout = "2006-01-02"
	// TimeLayout is the wire and storage format of task times
	TimeLayout = "15:04"
)
