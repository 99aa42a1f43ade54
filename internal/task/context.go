package task

// loggingContext is the per-task correlation state described in
// spec.md §4.5.6. It is written only on T1 at task boundaries and read
// only on T1 by log_metrics; no cross-thread access is permitted.
type loggingContext struct {
	active    bool
	modelID   string
	roundID   string
	sessionID string
	step      int64
}

func (c *loggingContext) reset() {
	*c = loggingContext{}
}
