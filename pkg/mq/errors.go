package mq

// RequeueableError marks a handler failure as transient. The consumer
// nacks the delivery back onto the queue instead of dropping it.
type RequeueableError struct {
	Err error
}

func (e RequeueableError) Error() string {
	return "requeue: " + e.Err.Error()
}

func (e RequeueableError) Unwrap() error {
	return e.Err
}

// Requeue wraps err so the delivery is returned to the queue.
func Requeue(err error) error {
	return RequeueableError{Err: err}
}
