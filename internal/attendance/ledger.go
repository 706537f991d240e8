package attendance

// Meal is one of the two daily meal slots.
type Meal string

const (
	MealLunch  Meal = "lunch"
	MealDinner Meal = "dinner"
)

func ParseMeal(s string) (Meal, bool) {
	switch Meal(s) {
	case MealLunch, MealDinner:
		return Meal(s), true
	}
	return "", false
}

// Record is the attendance of one member on one day. A missing record means
// both meals are absent.
type Record struct {
	AttendanceID uint64
	MemberID     string
	Date         string // YYYY-MM-DD
	Lunch        bool
	Dinner       bool
}

func (r *Record) Has(m Meal) bool {
	if r == nil {
		return false
	}
	if m == MealLunch {
		return r.Lunch
	}
	return r.Dinner
}

func (r *Record) set(m Meal, v bool) {
	if m == MealLunch {
		r.Lunch = v
		return
	}
	r.Dinner = v
}

// Transition is the outcome of applying desired meal flags to a record and
// a credit balance. Record is nil when the day stays absent.
type Transition struct {
	Record     *Record
	Create     bool
	Changed    bool
	Delta      int
	Debits     int
	Refunds    int
	FloorSkips int
}

func (t Transition) FloorSkipped() bool { return t.FloorSkips > 0 }

// Toggle sets meal to want. Marking present consumes one credit unless the
// balance is already at or below zero, in which case the flag is still set
// and the debit is skipped. Marking absent refunds one credit with no upper
// bound. current is never modified.
func Toggle(current *Record, meal Meal, want bool, balance int) Transition {
	if current == nil && !want {
		return Transition{}
	}
	if current != nil && current.Has(meal) == want {
		cp := *current
		return Transition{Record: &cp}
	}

	t := Transition{Changed: true}
	next := &Record{}
	if current == nil {
		t.Create = true
	} else {
		*next = *current
	}
	next.set(meal, want)
	t.Record = next

	switch {
	case !want:
		t.Delta = 1
		t.Refunds = 1
	case balance > 0:
		t.Delta = -1
		t.Debits = 1
	default:
		t.FloorSkips = 1
	}
	return t
}

// Apply sets both meals, lunch first, each against the running balance.
// A new day with both meals absent is never created.
func Apply(current *Record, lunch, dinner bool, balance int) Transition {
	l := Toggle(current, MealLunch, lunch, balance)
	base := current
	if l.Record != nil {
		base = l.Record
	}
	d := Toggle(base, MealDinner, dinner, balance+l.Delta)
	if d.Record == nil {
		d.Record = l.Record
	}
	return Transition{
		Record:     d.Record,
		Create:     l.Create || d.Create,
		Changed:    l.Changed || d.Changed,
		Delta:      l.Delta + d.Delta,
		Debits:     l.Debits + d.Debits,
		Refunds:    l.Refunds + d.Refunds,
		FloorSkips: l.FloorSkips + d.FloorSkips,
	}
}
