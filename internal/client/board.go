package client

import (
	"context"
	"sort"
	"sync"
)

// Board holds the attendance rows of one date and applies toggles
// optimistically, reconciling each with the server's answer.
type Board struct {
	client *Client
	date   string

	mu   sync.Mutex
	rows map[string]Row
}

func NewBoard(c *Client, date string) *Board {
	return &Board{client: c, date: date, rows: map[string]Row{}}
}

// Load fetches members and the day's attendance. Members without a record
// start with both meals absent.
func (b *Board) Load(ctx context.Context) error {
	members, err := b.client.ListMembers(ctx)
	if err != nil {
		b.handleErr(err)
		return err
	}
	entries, err := b.client.ListByDate(ctx, b.date)
	if err != nil {
		b.handleErr(err)
		return err
	}

	rows := make(map[string]Row, len(members))
	for _, m := range members {
		rows[m.MemberID] = Row{MemberID: m.MemberID, Name: m.Name, RemainingCredits: m.RemainingCredits}
	}
	for _, e := range entries {
		r, ok := rows[e.MemberID]
		if !ok {
			r = Row{MemberID: e.MemberID, Name: e.MemberName}
		}
		r.Lunch, r.Dinner = e.Lunch, e.Dinner
		rows[e.MemberID] = r
	}

	b.mu.Lock()
	b.rows = rows
	b.mu.Unlock()
	return nil
}

// Rows returns a snapshot ordered by name.
func (b *Board) Rows() []Row {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Row, 0, len(b.rows))
	for _, r := range b.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}

func (b *Board) Row(memberID string) (Row, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rows[memberID]
	return r, ok
}

// Toggle flips meal for memberID. The flipped row is visible through Rows
// while the request is in flight.
func (b *Board) Toggle(ctx context.Context, memberID, meal string) Outcome {
	b.mu.Lock()
	snapshot, ok := b.rows[memberID]
	if !ok {
		snapshot = Row{MemberID: memberID}
	}
	next, want := Optimistic(snapshot, meal)
	b.rows[memberID] = next
	b.mu.Unlock()

	resp, err := b.client.Toggle(ctx, memberID, b.date, meal, want)
	out := Reconcile(snapshot, resp, err)

	b.mu.Lock()
	b.rows[memberID] = out.Row
	b.mu.Unlock()

	if out.Unauthenticated {
		b.client.Session().Clear()
	}
	return out
}

func (b *Board) handleErr(err error) {
	if IsUnauthenticated(err) {
		b.client.Session().Clear()
	}
}
