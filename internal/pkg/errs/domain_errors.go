package errs

// Sentinels shared across the usecase layers.
var (
	ErrDatabaseOperationFailed = New("database operation failed")

	ErrIdempotencyInProgress  = New("idempotency in progress")
	ErrIdempotencyCheckFailed = New("idempotency check failed")
)
