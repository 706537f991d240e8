package members

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	mu       sync.Mutex
	members  map[string]Member
	payments map[string][]Payment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{members: map[string]Member{}, payments: map[string][]Payment{}}
}

func (f *fakeRepo) put(m Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[m.ID] = m
}

func (f *fakeRepo) get(id string) Member {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[id]
}

func (f *fakeRepo) InTx(ctx context.Context, fn func(ctx context.Context, q txQueries) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	members := make(map[string]Member, len(f.members))
	for k, v := range f.members {
		members[k] = v
	}
	payments := make(map[string][]Payment, len(f.payments))
	for k, v := range f.payments {
		payments[k] = append([]Payment(nil), v...)
	}
	if err := fn(ctx, fakeTx{f}); err != nil {
		f.members, f.payments = members, payments
		return err
	}
	return nil
}

type fakeTx struct{ f *fakeRepo }

func (t fakeTx) LockMember(_ context.Context, id string) (*Member, error) {
	m, ok := t.f.members[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (t fakeTx) UpdateMember(_ context.Context, m *Member) error {
	t.f.members[m.ID] = *m
	return nil
}

func (t fakeTx) InsertPayment(_ context.Context, p *Payment) error {
	t.f.payments[p.MemberID] = append(t.f.payments[p.MemberID], *p)
	return nil
}

func (t fakeTx) DeletePayments(_ context.Context, id string) error {
	delete(t.f.payments, id)
	return nil
}

func (f *fakeRepo) Insert(_ context.Context, m *Member) error {
	f.put(*m)
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (f *fakeRepo) sorted(match func(Member) bool) []Member {
	out := []Member{}
	for _, m := range f.members {
		if match(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeRepo) List(_ context.Context) ([]Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(Member) bool { return true }), nil
}

func (f *fakeRepo) ListExhausted(_ context.Context) ([]Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(m Member) bool { return m.RemainingCredits <= 0 }), nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.members[id]; !ok {
		return 0, nil
	}
	delete(f.members, id)
	delete(f.payments, id)
	return 1, nil
}

func (f *fakeRepo) ResetCredits(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, m := range f.members {
		if m.RemainingCredits != m.MaxCredits {
			m.RemainingCredits = m.MaxCredits
			f.members[id] = m
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) ListPayments(_ context.Context, id string) ([]Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Payment{}, f.payments[id]...), nil
}

func (f *fakeRepo) Revenue(_ context.Context) (decimal.Decimal, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := decimal.Zero
	for _, m := range f.members {
		sum = sum.Add(m.SubscriptionAmount)
	}
	return sum, int64(len(f.members)), nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqID struct {
	mu sync.Mutex
	n  int
}

func (g *seqID) New() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("ID%024d", g.n), nil
}
