package attendance

import "time"

// 一覧用（members と JOIN）
type Entry struct {
	Record
	MemberName string
	UpdatedAt  time.Time
}

func (r *Record) toDTO() *RecordResponse {
	if r == nil {
		return nil
	}
	return &RecordResponse{
		AttendanceID: r.AttendanceID,
		MemberID:     r.MemberID,
		Date:         r.Date,
		Lunch:        r.Lunch,
		Dinner:       r.Dinner,
	}
}

func (e Entry) toDTO() EntryResponse {
	return EntryResponse{
		RecordResponse: *e.Record.toDTO(),
		MemberName:     e.MemberName,
		UpdatedAt:      e.UpdatedAt.UTC(),
	}
}
