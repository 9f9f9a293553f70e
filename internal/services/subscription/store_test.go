package subscription

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

type enrollment struct {
	classID  int64
	memberID int64
}

// memState состояние хранилища, копируемое на время транзакции.
type memState struct {
	members     map[int64]*models.Member
	methods     map[int64]models.PaymentMethod
	offers      map[int64]models.Offer
	passes      map[int64]models.Pass // по member_id
	history     []models.HistoricalPass
	payments    []models.Payment
	classes     map[int64]models.GroupClass
	enrollments []enrollment
	nextID      int64
}

func (s memState) clone() memState {
	c := s
	c.members = make(map[int64]*models.Member, len(s.members))
	for k, v := range s.members {
		c.members[k] = v
	}
	c.methods = make(map[int64]models.PaymentMethod, len(s.methods))
	for k, v := range s.methods {
		c.methods[k] = v
	}
	c.offers = make(map[int64]models.Offer, len(s.offers))
	for k, v := range s.offers {
		c.offers[k] = v
	}
	c.passes = make(map[int64]models.Pass, len(s.passes))
	for k, v := range s.passes {
		c.passes[k] = v
	}
	c.classes = make(map[int64]models.GroupClass, len(s.classes))
	for k, v := range s.classes {
		c.classes[k] = v
	}
	c.history = append([]models.HistoricalPass(nil), s.history...)
	c.payments = append([]models.Payment(nil), s.payments...)
	c.enrollments = append([]enrollment(nil), s.enrollments...)
	return c
}

// memStore хранилище в памяти с транзакциями: одна транзакция за раз, откат восстанавливает копию.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   memState

	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		st: memState{
			members: map[int64]*models.Member{},
			methods: map[int64]models.PaymentMethod{},
			offers:  map[int64]models.Offer{},
			passes:  map[int64]models.Pass{},
			classes: map[int64]models.GroupClass{},
		},
		failOn: map[string]error{},
	}
}

type memTxKey struct{}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	backup := s.st.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		s.mu.Lock()
		s.st = backup
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) fail(name string) error {
	return s.failOn[name]
}

func (s *memStore) LockMember(_ context.Context, memberID int64) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.st.members[memberID]
	if !ok {
		return nil, models.ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) GetMember(ctx context.Context, memberID int64) (*models.Member, error) {
	return s.LockMember(ctx, memberID)
}

func (s *memStore) GetPassByMember(_ context.Context, memberID int64) (*models.Pass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.passes[memberID]
	if !ok {
		return nil, models.ErrPassNotFound
	}
	return &p, nil
}

func (s *memStore) CreatePass(_ context.Context, pass *models.Pass) (int64, error) {
	if err := s.fail("CreatePass"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.passes[pass.MemberID]; ok {
		return 0, models.ErrPassAlreadyExists
	}
	s.st.nextID++
	p := *pass
	p.ID = s.st.nextID
	s.st.passes[p.MemberID] = p
	return p.ID, nil
}

func (s *memStore) UpdateNextPayment(_ context.Context, passID int64, next time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, p := range s.st.passes {
		if p.ID == passID && p.DateOfNextPayment.Before(next) {
			p.DateOfNextPayment = next
			s.st.passes[k] = p
			return nil
		}
	}
	return models.ErrPassNotFound
}

func (s *memStore) DeletePass(_ context.Context, passID int64) error {
	if err := s.fail("DeletePass"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, p := range s.st.passes {
		if p.ID == passID {
			delete(s.st.passes, k)
			return nil
		}
	}
	return models.ErrPassNotFound
}

func (s *memStore) SaveHistoricalPass(_ context.Context, h *models.HistoricalPass) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextID++
	c := *h
	c.ID = s.st.nextID
	s.st.history = append(s.st.history, c)
	return c.ID, nil
}

func (s *memStore) ListHistoricalPasses(_ context.Context, memberID int64) ([]*models.HistoricalPass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.HistoricalPass
	for i := len(s.st.history) - 1; i >= 0; i-- {
		if s.st.history[i].MemberID == memberID {
			h := s.st.history[i]
			out = append(out, &h)
		}
	}
	return out, nil
}

func (s *memStore) ListMembersDueForPayment(_ context.Context, today time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, p := range s.st.passes {
		if !today.Before(p.DateOfNextPayment) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *memStore) ListMembersWithExpiredPass(_ context.Context, now time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, p := range s.st.passes {
		if !now.Before(p.DateEnd) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *memStore) GetPaymentMethod(_ context.Context, memberID int64) (*models.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pm, ok := s.st.methods[memberID]
	if !ok {
		return nil, models.ErrNoPaymentMethod
	}
	return &pm, nil
}

func (s *memStore) UpsertPaymentMethod(_ context.Context, pm *models.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.methods[pm.MemberID] = *pm
	return nil
}

func (s *memStore) GetOffer(_ context.Context, offerID int64) (*models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.st.offers[offerID]
	if !ok {
		return nil, models.ErrOfferNotFound
	}
	return &o, nil
}

func (s *memStore) SavePayment(_ context.Context, p *models.Payment) (int64, error) {
	if err := s.fail("SavePayment"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextID++
	c := *p
	c.ID = s.st.nextID
	s.st.payments = append(s.st.payments, c)
	return c.ID, nil
}

func (s *memStore) ListPayments(_ context.Context, memberID int64) ([]*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Payment
	for i := len(s.st.payments) - 1; i >= 0; i-- {
		if s.st.payments[i].MemberID == memberID {
			p := s.st.payments[i]
			out = append(out, &p)
		}
	}
	return out, nil
}

func (s *memStore) CancelFutureEnrollments(_ context.Context, memberID int64, now time.Time) (int, error) {
	if err := s.fail("CancelFutureEnrollments"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.st.enrollments[:0]
	n := 0
	for _, e := range s.st.enrollments {
		c := s.st.classes[e.classID]
		if e.memberID == memberID && c.StartsAt.After(now) {
			c.MembersCount--
			s.st.classes[e.classID] = c
			n++
			continue
		}
		kept = append(kept, e)
	}
	s.st.enrollments = kept
	return n, nil
}

// helpers для проверок

func (s *memStore) addMember(id int64, email string) {
	s.st.members[id] = &models.Member{ID: id, Email: email, FirstName: "Anna", LastName: "Petrova"}
}

func (s *memStore) enroll(classID, memberID int64) {
	c := s.st.classes[classID]
	c.MembersCount++
	s.st.classes[classID] = c
	s.st.enrollments = append(s.st.enrollments, enrollment{classID: classID, memberID: memberID})
}

func (s *memStore) upcoming(memberID int64, now time.Time) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, e := range s.st.enrollments {
		if e.memberID == memberID && s.st.classes[e.classID].StartsAt.After(now) {
			ids = append(ids, e.classID)
		}
	}
	return ids
}

func (s *memStore) paymentsOf(memberID int64) []models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Payment
	for _, p := range s.st.payments {
		if p.MemberID == memberID {
			out = append(out, p)
		}
	}
	return out
}

func (s *memStore) historyOf(memberID int64) []models.HistoricalPass {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.HistoricalPass
	for _, h := range s.st.history {
		if h.MemberID == memberID {
			out = append(out, h)
		}
	}
	return out
}

func (s *memStore) passCount(memberID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.passes[memberID]; ok {
		return 1
	}
	return 0
}
