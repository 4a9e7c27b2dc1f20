package endee

// Op constants map to Endee API operations for error context.
const (
	OpCreateIndex = "create_index"
	OpListIndexes = "list_indexes"
	OpDeleteIndex = "delete_index"
	OpUpsert      = "upsert"
	OpSearch      = "search"
	OpPing        = "ping"
)

// Error wraps an underlying error with the operation and index name for
// diagnostics. The wrapped error carries the domain sentinel kind.
type Error struct {
	Op    string
	Index string
	Err   error
}

func (e *Error) Error() string {
	if e.Index == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Index + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
