package enums

// OutboxDLQErrorReason explains why a row landed in the dead-letter table.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)

// IsValid reports whether the value is a known DLQ reason.
func (r OutboxDLQErrorReason) IsValid() bool {
	return r == OutboxDLQReasonNonRetryable || r == OutboxDLQReasonMaxAttempts
}
