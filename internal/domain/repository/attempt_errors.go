package repository

import "errors"

// Attempt state-machine sentinel errors. They surface precondition failures
// to the caller; the UI decides whether to retry, prompt, or force a
// transition to timed_out.
var (
	// ErrAttemptAlreadyInProgress means the student already has an in_progress
	// attempt for this quiz. At most one concurrent attempt per (student, quiz).
	ErrAttemptAlreadyInProgress = errors.New("an attempt is already in progress for this quiz")

	// ErrAttemptLimitExceeded means the student's count of non-abandoned
	// attempts reached the quiz max_attempts policy.
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded for this quiz")

	// ErrAttemptNotActive means a save or submit hit an attempt in a terminal state.
	ErrAttemptNotActive = errors.New("attempt is not in progress")

	// ErrAttemptExpired means the time limit elapsed; the caller should
	// transition the attempt to timed_out.
	ErrAttemptExpired = errors.New("attempt time limit has expired")

	// ErrAttemptAlreadyFinalized means a concurrent submit or the expiry sweep
	// moved the attempt to a terminal state first. The stored result wins.
	ErrAttemptAlreadyFinalized = errors.New("attempt was already finalized")
)
