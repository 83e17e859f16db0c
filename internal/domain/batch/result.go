package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusCreated ItemStatus = "created"
	StatusUpdated ItemStatus = "updated"
	StatusDeleted ItemStatus = "deleted"
	StatusError   ItemStatus = "error"
)

// Result is the outcome of one document in a bulk write.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// Saved reports a stored document.
func Saved(id string, created bool) Result {
	if created {
		return Result{id: id, status: StatusCreated}
	}
	return Result{id: id, status: StatusUpdated}
}

// Deleted reports a removed document.
func Deleted(id string) Result { return Result{id: id, status: StatusDeleted} }

// Failed reports an item that was not written. id may be empty for a
// document that had none.
func Failed(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the document id.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// OK reports whether the item was written.
func (r Result) OK() bool { return r.status != StatusError }
