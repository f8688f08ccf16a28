package domain

// DelayedCaseEntry is one row of the delayed-cases ledger. A ticket
// appears here at most once, on the day it is first found overdue.
type DelayedCaseEntry struct {
	RowID        int64
	Rev          int64
	TicketID     string
	Department   string
	RegisteredAt string
	DetectedAt   string
	Status       TicketStatus
	Notified     bool
}

// RatingEntry is one row of the append-only ratings ledger. The
// ledger, not the mutable ticket row, is the idempotency authority
// for the Rate action and the input to performance scoring.
type RatingEntry struct {
	TicketID   string
	RatedBy    string
	ResolvedBy string
	Rating     int
	RatedAt    string
}

// TransferEntry is one row of the transfer audit ledger.
type TransferEntry struct {
	RowID          int64
	TicketID       string
	FromDepartment string
	ToDepartment   string
	Actor          string
	Status         TicketStatus
	Date           string
	Time           string
}

// ExtensionEntry is one row of the extension audit ledger.
type ExtensionEntry struct {
	TicketID  string
	OldTarget string
	NewTarget string
	DiffDays  int
	Reason    string
	Actor     string
	Date      string
}
