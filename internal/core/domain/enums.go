package domain

type HashType string
type JobStatus string
type SourceKind string
type OutcomeKind string
type DistributionMode string
type EngineState int32

const (
	//Hash types
	HashMD5    HashType = "MD5"
	HashSHA1   HashType = "SHA1"
	HashSHA256 HashType = "SHA256"
	HashSHA512 HashType = "SHA512"
	HashBCRYPT HashType = "BCRYPT"

	//Session status
	StatusPending   JobStatus = "PENDING"
	StatusRunning   JobStatus = "RUNNING"
	StatusComplete  JobStatus = "COMPLETE"
	StatusFailed    JobStatus = "FAILED"
	StatusCancelled JobStatus = "CANCELLED"

	// Candidate sources
	SourceWordlist SourceKind = "wordlist"
	SourceRange    SourceKind = "range"
	SourceDate     SourceKind = "date"
	SourceQuery    SourceKind = "query"
	SourceBrute    SourceKind = "brute"

	// Outcomes
	OutcomeFound     OutcomeKind = "found"
	OutcomeExhausted OutcomeKind = "exhausted"
	OutcomeCancelled OutcomeKind = "cancelled"

	// Distribution policies
	ModeQueue     DistributionMode = "queue"
	ModeBroadcast DistributionMode = "broadcast"
)

const (
	StateRunning EngineState = iota
	StateCancelling
	StateTerminated
)

func (s EngineState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCancelling:
		return "cancelling"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

var (
	CharsetLower   = "abcdefghijklmnopqrstuvwxyz"
	CharsetUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	CharsetDigits  = "0123456789"
	CharsetSpecial = "!@#$%^&*()_+-=[]{}|;:,.<>?"
	CharsetAll     = CharsetLower + CharsetUpper + CharsetDigits + CharsetSpecial
)

// Sources are a closed set; anything else is rejected when a run is configured.
var SourceKinds = []SourceKind{SourceWordlist, SourceRange, SourceDate, SourceQuery, SourceBrute}

func (k SourceKind) Valid() bool {
	for _, known := range SourceKinds {
		if k == known {
			return true
		}
	}
	return false
}

func (m DistributionMode) Valid() bool {
	return m == ModeQueue || m == ModeBroadcast
}

type CrackingError string

const (
	ErrTargetOpen          CrackingError = "TARGET_OPEN"
	ErrOracle              CrackingError = "ORACLE_FAILURE"
	ErrChannelClosed       CrackingError = "CHANNEL_CLOSED"
	ErrCancellationTimeout CrackingError = "CANCELLATION_TIMEOUT"
	ErrInvalidSource       CrackingError = "INVALID_SOURCE"
	ErrInvalidHash         CrackingError = "INVALID_HASH"
	ErrUnsupportedHash     CrackingError = "UNSUPPORTED_HASH"
	ErrInvalidWordlist     CrackingError = "INVALID_WORDLIST"
	ErrSessionNotFound     CrackingError = "SESSION_NOT_FOUND"
	ErrSessionComplete     CrackingError = "SESSION_COMPLETE"
	ErrSessionActive       CrackingError = "SESSION_ACTIVE"
	ErrInvalidWorkers      CrackingError = "INVALID_WORKER_COUNT"
)

func (e CrackingError) Error() string {
	return string(e)
}
