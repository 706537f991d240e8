package attendance

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

type dayKey struct{ member, date string }

type fakeMember struct {
	name    string
	balance int
}

// fakeRepo serializes transactions with one mutex and rolls back on error.
type fakeRepo struct {
	mu      sync.Mutex
	members map[string]*fakeMember
	days    map[dayKey]*Record
	nextID  uint64
	failFor string
}

var errBoom = errors.New("boom")

func newFakeRepo() *fakeRepo {
	return &fakeRepo{members: map[string]*fakeMember{}, days: map[dayKey]*Record{}}
}

func (f *fakeRepo) addMember(id, name string, balance int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[id] = &fakeMember{name: name, balance: balance}
}

func (f *fakeRepo) balance(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[id].balance
}

func (f *fakeRepo) day(id, date string) *Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.days[dayKey{id, date}]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

func (f *fakeRepo) InTx(ctx context.Context, fn func(ctx context.Context, q txQueries) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	members := make(map[string]fakeMember, len(f.members))
	for k, v := range f.members {
		members[k] = *v
	}
	days := make(map[dayKey]Record, len(f.days))
	for k, v := range f.days {
		days[k] = *v
	}

	if err := fn(ctx, fakeTx{f}); err != nil {
		f.members = map[string]*fakeMember{}
		for k, v := range members {
			v := v
			f.members[k] = &v
		}
		f.days = map[dayKey]*Record{}
		for k, v := range days {
			v := v
			f.days[k] = &v
		}
		return err
	}
	return nil
}

type fakeTx struct{ f *fakeRepo }

func (t fakeTx) LockMember(_ context.Context, id string) (int, bool, error) {
	if id == t.f.failFor {
		return 0, false, errBoom
	}
	m, ok := t.f.members[id]
	if !ok {
		return 0, false, nil
	}
	return m.balance, true, nil
}

func (t fakeTx) GetDay(_ context.Context, id, date string) (*Record, error) {
	r, ok := t.f.days[dayKey{id, date}]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (t fakeTx) InsertDay(_ context.Context, r *Record) error {
	t.f.nextID++
	r.AttendanceID = t.f.nextID
	cp := *r
	t.f.days[dayKey{r.MemberID, r.Date}] = &cp
	return nil
}

func (t fakeTx) UpdateDay(_ context.Context, r *Record) error {
	cp := *r
	t.f.days[dayKey{r.MemberID, r.Date}] = &cp
	return nil
}

func (t fakeTx) AddCredits(_ context.Context, id string, delta int) error {
	t.f.members[id].balance += delta
	return nil
}

func (f *fakeRepo) MemberExists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.members[id]
	return ok, nil
}

func (f *fakeRepo) entries(match func(Record) bool) []Entry {
	out := []Entry{}
	for _, r := range f.days {
		if match(*r) {
			out = append(out, Entry{Record: *r, MemberName: f.members[r.MemberID].name, UpdatedAt: time.Unix(0, 0)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].MemberName < out[j].MemberName
	})
	return out
}

func (f *fakeRepo) ListByDate(_ context.Context, date string) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries(func(r Record) bool { return r.Date == date }), nil
}

func (f *fakeRepo) ListByMember(_ context.Context, id string) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.entries(func(r Record) bool { return r.MemberID == id })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (f *fakeRepo) ListRange(_ context.Context, from, to string) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries(func(r Record) bool { return r.Date >= from && r.Date <= to }), nil
}

func (f *fakeRepo) CountPresent(_ context.Context, date string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, r := range f.days {
		if k.date == date && (r.Lunch || r.Dinner) {
			n++
		}
	}
	return n, nil
}

type recordingPub struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPub) Publish(topic string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPub) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}
