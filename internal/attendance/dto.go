package attendance

import "time"

const (
	DateLayout     = "2006-01-02"
	MaxBulkEntries = 500
	MaxExportDays  = 366
)

// Bulk entry statuses.
const (
	EntryUpdated   = "updated"
	EntryUnchanged = "unchanged"
	EntrySkipped   = "skipped"
	EntryFailed    = "failed"
)

type ToggleRequest struct {
	Status *bool `json:"status" binding:"required"`
}

type RecordResponse struct {
	AttendanceID uint64 `json:"attendance_id"`
	MemberID     string `json:"member_id"`
	Date         string `json:"date"` // YYYY-MM-DD
	Lunch        bool   `json:"lunch"`
	Dinner       bool   `json:"dinner"`
}

// Record is null when the member has no attendance for that day.
type ToggleResponse struct {
	Record           *RecordResponse `json:"record"`
	RemainingCredits int             `json:"remaining_credits"`
}

type EntryResponse struct {
	RecordResponse
	MemberName string    `json:"member_name"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type BulkEntry struct {
	UserID string `json:"user_id"`
	Lunch  bool   `json:"lunch"`
	Dinner bool   `json:"dinner"`
}

type BulkRequest struct {
	Date    string      `json:"date" binding:"required"` // "YYYY-MM-DD" or "today"
	Members []BulkEntry `json:"members" binding:"required"`
}

type BulkEntryResult struct {
	UserID           string          `json:"user_id"`
	Status           string          `json:"status"`
	Record           *RecordResponse `json:"record,omitempty"`
	RemainingCredits *int            `json:"remaining_credits,omitempty"`
	Error            *APIError       `json:"error,omitempty"`
}

type BulkResponse struct {
	Date      string            `json:"date"`
	Results   []BulkEntryResult `json:"results"`
	Updated   int               `json:"updated"`
	Unchanged int               `json:"unchanged"`
	Skipped   int               `json:"skipped"`
	Failed    int               `json:"failed"`
}

type CountResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
