package client

// Row is the local view of one member on the attendance board.
type Row struct {
	MemberID         string
	Name             string
	Lunch            bool
	Dinner           bool
	RemainingCredits int
}

func (r Row) Has(meal string) bool {
	if meal == MealLunch {
		return r.Lunch
	}
	return r.Dinner
}

// Optimistic flips meal locally and returns the new row and the status to send.
func Optimistic(r Row, meal string) (Row, bool) {
	want := !r.Has(meal)
	if meal == MealLunch {
		r.Lunch = want
	} else {
		r.Dinner = want
	}
	return r, want
}

// Outcome is the reconciled row after a toggle request finished.
type Outcome struct {
	Row             Row
	Err             error
	Unauthenticated bool
}

// Reconcile resolves a toggle. On success the server's record and balance win
// over the optimistic guess; a null record means both meals are absent. On
// failure the pre-toggle snapshot is restored.
func Reconcile(snapshot Row, resp *ToggleResponse, err error) Outcome {
	if err != nil || resp == nil {
		if err == nil {
			err = errEmptyResponse
		}
		return Outcome{Row: snapshot, Err: err, Unauthenticated: IsUnauthenticated(err)}
	}
	out := snapshot
	out.Lunch, out.Dinner = false, false
	if resp.Record != nil {
		out.Lunch = resp.Record.Lunch
		out.Dinner = resp.Record.Dinner
	}
	out.RemainingCredits = resp.RemainingCredits
	return Outcome{Row: out}
}
