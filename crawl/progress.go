package crawl

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

func (t ProgressType) String() string {
	switch t {
	case ProgressStarted:
		return "started"
	case ProgressCompleted:
		return "completed"
	case ProgressFailed:
		return "failed"
	case ProgressFinished:
		return "finished"
	}
	return "unknown"
}

// ProgressEvent reports progress during a crawl.
type ProgressEvent struct {
	Type    ProgressType
	URL     string
	Depth   int
	Visited int
	Error   error
}

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)
