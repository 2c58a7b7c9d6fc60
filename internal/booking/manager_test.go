package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/condortrails/tour-booking-api/internal/model"
	"github.com/condortrails/tour-booking-api/internal/queue"
)

// fakeStore is an in-memory Store.  Sessions serialize on a mutex the
// same way row locks serialize them in MySQL: Begin acquires the lock
// and Commit/Rollback release it, so two operations on the same store
// never interleave.  Writes are buffered per session and applied on
// Commit only.
type fakeStore struct {
	mu           sync.Mutex
	tours        map[uint64]*model.Tour
	users        map[uint64]*model.User
	departures   map[uint64]*model.Departure
	reservations map[uint64]*model.Reservation
	nextID       uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tours:        make(map[uint64]*model.Tour),
		users:        make(map[uint64]*model.User),
		departures:   make(map[uint64]*model.Departure),
		reservations: make(map[uint64]*model.Reservation),
		nextID:       1,
	}
}

func (f *fakeStore) Begin(ctx context.Context) (Session, error) {
	f.mu.Lock()
	return &fakeSession{
		store:        f,
		departures:   make(map[uint64]*model.Departure),
		reservations: make(map[uint64]*model.Reservation),
	}, nil
}

type fakeSession struct {
	store *fakeStore
	done  bool

	// buffered writes, keyed by ID
	departures   map[uint64]*model.Departure
	reservations map[uint64]*model.Reservation
}

func (s *fakeSession) finish() {
	if !s.done {
		s.done = true
		s.store.mu.Unlock()
	}
}

func (s *fakeSession) Commit() error {
	for id, d := range s.departures {
		s.store.departures[id] = d
	}
	for id, r := range s.reservations {
		s.store.reservations[id] = r
	}
	s.finish()
	return nil
}

func (s *fakeSession) Rollback() error {
	s.finish()
	return nil
}

func (s *fakeSession) TourByID(ctx context.Context, id uint64) (*model.Tour, error) {
	t, ok := s.store.tours[id]
	if !ok {
		return nil, ErrTourNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeSession) UserByID(ctx context.Context, id uint64) (*model.User, error) {
	u, ok := s.store.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	cp := *u
	return &cp, nil
}

func (s *fakeSession) departure(id uint64) (*model.Departure, bool) {
	if d, ok := s.departures[id]; ok {
		return d, true
	}
	d, ok := s.store.departures[id]
	if !ok {
		return nil, false
	}
	cp := *d
	s.departures[id] = &cp
	return &cp, true
}

func (s *fakeSession) DepartureForUpdate(ctx context.Context, id uint64) (*model.Departure, error) {
	d, ok := s.departure(id)
	if !ok {
		return nil, ErrDepartureNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *fakeSession) ReserveSeats(ctx context.Context, departureID uint64, n int) (bool, error) {
	d, ok := s.departure(departureID)
	if !ok {
		return false, ErrDepartureNotFound
	}
	if d.OccupiedSeats+n > d.TotalSeats {
		return false, nil
	}
	d.OccupiedSeats += n
	return true, nil
}

func (s *fakeSession) ReleaseSeats(ctx context.Context, departureID uint64, n int) error {
	d, ok := s.departure(departureID)
	if !ok {
		return ErrDepartureNotFound
	}
	d.OccupiedSeats -= n
	if d.OccupiedSeats < 0 {
		d.OccupiedSeats = 0
	}
	return nil
}

func (s *fakeSession) RefreshDepartureStatus(ctx context.Context, departureID uint64) error {
	d, ok := s.departure(departureID)
	if !ok {
		return ErrDepartureNotFound
	}
	switch {
	case d.Status == model.DepartureOpen && d.OccupiedSeats >= d.TotalSeats:
		d.Status = model.DepartureFull
	case d.Status == model.DepartureFull && d.OccupiedSeats < d.TotalSeats:
		d.Status = model.DepartureOpen
	}
	return nil
}

func (s *fakeSession) InsertReservation(ctx context.Context, res *model.Reservation) error {
	res.ID = s.store.nextID
	s.store.nextID++
	res.CreatedAt = time.Now().UTC()
	res.UpdatedAt = res.CreatedAt
	cp := *res
	s.reservations[res.ID] = &cp
	return nil
}

func (s *fakeSession) ReservationForUpdate(ctx context.Context, id uint64) (*model.Reservation, error) {
	if r, ok := s.reservations[id]; ok {
		cp := *r
		return &cp, nil
	}
	r, ok := s.store.reservations[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeSession) UpdateReservation(ctx context.Context, res *model.Reservation) error {
	if _, ok := s.reservations[res.ID]; !ok {
		if _, ok := s.store.reservations[res.ID]; !ok {
			return ErrReservationNotFound
		}
	}
	cp := *res
	s.reservations[res.ID] = &cp
	return nil
}

// capturePublisher records published events and can be made to fail.
type capturePublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	fail   bool
}

func (p *capturePublisher) PublishReservationEvent(ctx context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Kind
	}
	return out
}

func seededStore(totalSeats int, startDate time.Time) *fakeStore {
	f := newFakeStore()
	f.tours[1] = &model.Tour{
		ID:                  1,
		Name:                "Patagonia Trek",
		Slug:                "patagonia-trek",
		PricePerPersonCents: 250000,
		Currency:            "USD",
		Active:              true,
	}
	f.users[1] = &model.User{ID: 1, Name: "Ana", Email: "ana@example.com", Role: model.RoleCustomer}
	f.users[2] = &model.User{ID: 2, Name: "Bruno", Email: "bruno@example.com", Role: model.RoleCustomer}
	f.departures[10] = &model.Departure{
		ID:         10,
		TourID:     1,
		StartDate:  startDate,
		EndDate:    startDate.AddDate(0, 0, 7),
		TotalSeats: totalSeats,
		Status:     model.DepartureOpen,
	}
	return f
}

func TestReserveCreatesPreReservation(t *testing.T) {
	start := time.Now().UTC().AddDate(0, 0, 60)
	store := seededStore(10, start)
	pub := &capturePublisher{}
	mgr := NewManager(store, pub, time.Second)

	res, err := mgr.Reserve(context.Background(), ReserveInput{
		UserID: 1, TourID: 1, DepartureID: 10, PartySize: 3,
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	r := res.Reservation
	if r.State != model.ReservationPreReservation {
		t.Errorf("state = %q, want pre_reservation", r.State)
	}
	if r.PaymentState != model.PaymentPending {
		t.Errorf("payment state = %q, want pending", r.PaymentState)
	}
	if r.TotalAmountCents != 750000 {
		t.Errorf("total = %d cents, want 750000", r.TotalAmountCents)
	}
	if got := store.departures[10].OccupiedSeats; got != 3 {
		t.Errorf("occupied = %d, want 3", got)
	}
	if !res.Notified {
		t.Error("expected the created event to be published")
	}
	if kinds := pub.kinds(); len(kinds) != 1 || kinds[0] != queue.EventReservationCreated {
		t.Errorf("published kinds = %v", kinds)
	}
}

func TestReserveRejectsInvalidPartySize(t *testing.T) {
	store := seededStore(10, time.Now().AddDate(0, 0, 60))
	mgr := NewManager(store, nil, time.Second)

	for _, size := range []int{0, -2} {
		_, err := mgr.Reserve(context.Background(), ReserveInput{
			UserID: 1, TourID: 1, DepartureID: 10, PartySize: size,
		})
		if !errors.Is(err, ErrInvalidPartySize) {
			t.Errorf("party size %d: err = %v, want ErrInvalidPartySize", size, err)
		}
	}
	if got := store.departures[10].OccupiedSeats; got != 0 {
		t.Errorf("occupied = %d after rejected reserves, want 0", got)
	}
}

func TestReserveCapacityExceeded(t *testing.T) {
	store := seededStore(4, time.Now().AddDate(0, 0, 60))
	mgr := NewManager(store, nil, time.Second)
	ctx := context.Background()

	if _, err := mgr.Reserve(ctx, ReserveInput{UserID: 1, TourID: 1, DepartureID: 10, PartySize: 3}); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	_, err := mgr.Reserve(ctx, ReserveInput{UserID: 2, TourID: 1, DepartureID: 10, PartySize: 2})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	var capErr *CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("err %T does not wrap CapacityError", err)
	}
	if capErr.Available != 1 {
		t.Errorf("available = %d, want 1", capErr.Available)
	}
	if got := store.departures[10].OccupiedSeats; got != 3 {
		t.Errorf("occupied = %d after failed reserve, want 3", got)
	}
}

func TestReserveExactRemainingSeats(t *testing.T) {
	store := seededStore(5, time.Now().AddDate(0, 0, 60))
	mgr := NewManager(store, nil, time.Second)
	ctx := context.Background()

	if _, err := mgr.Reserve(ctx, ReserveInput{UserID: 1, TourID: 1, DepartureID: 10, PartySize: 3}); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if _, err := mgr.Reserve(ctx, ReserveInput{UserID: 2, TourID: 1, DepartureID: 10, PartySize: 2}); err != nil {
		t.Fatalf("reserve of exact remainder: %v", err)
	}
	d := store.departures[10]
	if d.OccupiedSeats != d.TotalSeats {
		t.Errorf("occupied = %d, want %d", d.OccupiedSeats, d.TotalSeats)
	}
	if d.Status != model.DepartureFull {
		t.Errorf("status = %q, want full", d.Status)
	}
}

func TestReserveDepartureMismatch(t *testing.T) {
	store := seededStore(10, time.Now().AddDate(0, 0, 60))
	store.tours[2] = &model.Tour{ID: 2, Name: "Atacama Stars", Slug: "atacama-stars", PricePerPersonCents: 90000, Currency: "USD", Active: true}
	mgr := NewManager(store, nil, time.Second)

	_, err := mgr.Reserve(context.Background(), ReserveInput{
		UserID: 1, TourID: 2, DepartureID: 10, PartySize: 1,
	})
	if !errors.Is(err, ErrDepartureMismatch) {
		t.Fatalf("err = %v, want ErrDepartureMismatch", err)
	}
}

func TestReserveInactiveTour(t *testing.T) {
	store := seededStore(10, time.Now().AddDate(0, 0, 60))
	store.tours[1].Active = false
	mgr := NewManager(store, nil, time.Second)

	_, err := mgr.Reserve(context.Background(), ReserveInput{
		UserID: 1, TourID: 1, DepartureID: 10, PartySize: 1,
	})
	if !errors.Is(err, ErrTourNotFound) {
		t.Fatalf("err = %v, want ErrTourNotFound", err)
	}
}

// Two concurrent parties of 6 race for a 10-seat departure.  Exactly
// one must win; the loser gets a capacity error and the committed
// occupancy never exceeds the total.
func TestConcurrentReserveOversell(t *testing.T) {
	store := seededStore(10, time.Now().AddDate(0, 0, 60))
	mgr := NewManager(store, nil, time.Second)

	type outcome struct {
		res *Result
		err error
	}
	results := make(chan outcome, 2)
	var wg sync.WaitGroup
	for _, userID := range []uint64{1, 2} {
		wg.Add(1)
		go func(uid uint64) {
			defer wg.Done()
			res, err := mgr.Reserve(context.Background(), ReserveInput{
				UserID: uid, TourID: 1, DepartureID: 10, PartySize: 6,
			})
			results <- outcome{res, err}
		}(userID)
	}
	wg.Wait()
	close(results)

	var wins, capacityFailures int
	for o := range results {
		switch {
		case o.err == nil:
			wins++
		case errors.Is(o.err, ErrCapacityExceeded):
			capacityFailures++
		default:
			t.Fatalf("unexpected error: %v", o.err)
		}
	}
	if wins != 1 || capacityFailures != 1 {
		t.Fatalf("wins = %d, capacity failures = %d; want exactly one of each", wins, capacityFailures)
	}
	if got := store.departures[10].OccupiedSeats; got != 6 {
		t.Errorf("occupied = %d, want 6", got)
	}
}

func TestConfirmRecordsPayment(t *testing.T) {
	store := seededStore(10, time.Now().AddDate(0, 0, 60))
	mgr := NewManager(store, nil, time.Second)
	ctx := context.Background()

	created, err := mgr.Reserve(ctx, ReserveInput{UserID: 1, TourID: 1, DepartureID: 10, PartySize: 2})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	confirmed, err := mgr.Confirm(ctx, ConfirmInput{
		ReservationID: created.Reservation.ID,
		PaymentMethod: "bank_transfer",
		PaymentRef:    "TRX-991",
	})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	r := confirmed.Reservation
	if r.State != model.ReservationConfirmed {
		t.Errorf("state = %q, want confirmed", r.State)
	}
	if r.PaymentState != model.PaymentPaid {
		t.Errorf("payment state = %q, want paid", r.PaymentState)
	}
	if r.PaymentMethod == nil || *r.PaymentMethod != "bank_transfer" {
		t.Errorf("payment method = %v, want bank_transfer", r.PaymentMethod)
	}
	if r.PaymentRef == nil || *r.PaymentRef != "TRX-991" {
		t.Errorf("payment ref = %v, want TRX-991", r.PaymentRef)
	}
	if r.PaidAt == nil {
		t.Error("paid_at not recorded")
	}
	// Seats were claimed at reserve time, confirm must not change them.
	if got := store.departures[10].OccupiedSeats; got != 2 {
		t.Errorf("occupied = %d, want 2", got)
	}
}

func TestConfirmRejectsNonPreReservation(t *testing.T) {
	store := seededStore(10, time.Now().AddDate(0, 0, 60))
	mgr := NewManager(store, nil, time.Second)
	ctx := context.Background()

	created, err := mgr.Reserve(ctx, ReserveInput{UserID: 1, TourID: 1, DepartureID: 10, PartySize: 2})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	id := created.Reservation.ID
	if _, err := mgr.Confirm(ctx, ConfirmInput{ReservationID: id, PaymentMethod: "cash", PaymentRef: "A"}); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	_, err = mgr.Confirm(ctx, ConfirmInput{ReservationID: id, PaymentMethod: "cash", PaymentRef: "B"})
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("second confirm err = %v, want ErrInvalidStateTransition", err)
	}
}

func TestConfirmMissingReservation(t *testing.T) {
	store := seededStore(10, time.Now().AddDate(0, 0, 60))
	mgr := NewManager(store, nil, time.Second)

	_, err := mgr.Confirm(context.Background(), ConfirmInput{ReservationID: 404, PaymentMethod: "cash", PaymentRef: "X"})
	if !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("err = %v, want ErrReservationNotFound", err)
	}
}

func TestCancelReleasesSeats(t *testing.T) {
	store := seededStore(10, time.Now().AddDate(0, 0, 60))
	mgr := NewManager(store, nil, time.Second)
	ctx := context.Background()

	created, err := mgr.Reserve(ctx, ReserveInput{UserID: 1, TourID: 1, DepartureID: 10, PartySize: 4})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	reason := "change of plans"
	cancelled, err := mgr.Cancel(ctx, CancelInput{
		ReservationID: created.Reservation.ID,
		Actor:         ActorCustomer,
		Reason:        &reason,
	})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	r := cancelled.Reservation
	if r.State != model.ReservationCancelledByCustomer {
		t.Errorf("state = %q, want cancelled_by_customer", r.State)
	}
	if r.CancelledAt == nil {
		t.Error("cancelled_at not recorded")
	}
	if r.CancelReason == nil || *r.CancelReason != reason {
		t.Errorf("cancel reason = %v, want %q", r.CancelReason, reason)
	}
	// Unpaid pre-reservation: no refund bookkeeping applies.
	if r.PaymentState != model.PaymentPending {
		t.Errorf("payment state = %q, want pending", r.PaymentState)
	}
	if r.RefundAmountCents != nil {
		t.Errorf("refund amount = %v, want nil", r.RefundAmountCents)
	}
	if got := store.departures[10].OccupiedSeats; got != 0 {
		t.Errorf("occupied = %d after cancel, want 0", got)
	}
}

func TestCancelByOperator(t *testing.T) {
	store := seededStore(10, time.Now().AddDate(0, 0, 60))
	mgr := NewManager(store, nil, time.Second)
	ctx := context.Background()

	created, err := mgr.Reserve(ctx, ReserveInput{UserID: 1, TourID: 1, DepartureID: 10, PartySize: 2})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	cancelled, err := mgr.Cancel(ctx, CancelInput{ReservationID: created.Reservation.ID, Actor: ActorOperator})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Reservation.State != model.ReservationCancelledByOperator {
		t.Errorf("state = %q, want cancelled_by_operator", cancelled.Reservation.State)
	}
}

func TestCancelCancelledRejected(t *testing.T) {
	store := seededStore(10, time.Now().AddDate(0, 0, 60))
	mgr := NewManager(store, nil, time.Second)
	ctx := context.Background()

	created, err := mgr.Reserve(ctx, ReserveInput{UserID: 1, TourID: 1, DepartureID: 10, PartySize: 2})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	id := created.Reservation.ID
	if _, err := mgr.Cancel(ctx, CancelInput{ReservationID: id, Actor: ActorCustomer}); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	_, err = mgr.Cancel(ctx, CancelInput{ReservationID: id, Actor: ActorCustomer})
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("second cancel err = %v, want ErrInvalidStateTransition", err)
	}
	// Seats must be released exactly once.
	if got := store.departures[10].OccupiedSeats; got != 0 {
		t.Errorf("occupied = %d, want 0", got)
	}
}

// cancelPaidAt books, confirms and cancels a paid reservation on a
// departure starting the given number of days from now, and returns
// the cancelled reservation.
func cancelPaidAt(t *testing.T, daysOut int) *model.Reservation {
	t.Helper()
	start := time.Now().UTC().AddDate(0, 0, daysOut)
	store := seededStore(10, start)
	mgr := NewManager(store, nil, time.Second)
	ctx := context.Background()

	created, err := mgr.Reserve(ctx, ReserveInput{UserID: 1, TourID: 1, DepartureID: 10, PartySize: 2})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if _, err := mgr.Confirm(ctx, ConfirmInput{ReservationID: created.Reservation.ID, PaymentMethod: "card", PaymentRef: "R1"}); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	cancelled, err := mgr.Cancel(ctx, CancelInput{ReservationID: created.Reservation.ID, Actor: ActorCustomer})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	return cancelled.Reservation
}

func TestCancelRefundPolicy(t *testing.T) {
	// Total is 2 x 250000 = 500000 cents.
	cases := []struct {
		name        string
		daysOut     int
		wantPayment model.PaymentState
		wantRefund  uint32
	}{
		{"31 days out gets full refund", 31, model.PaymentFullRefund, 500000},
		{"30 days out gets half refund", 30, model.PaymentPartialRefund, 250000},
		{"16 days out gets half refund", 16, model.PaymentPartialRefund, 250000},
		{"15 days out gets no refund", 15, model.PaymentPaid, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := cancelPaidAt(t, tc.daysOut)
			if r.PaymentState != tc.wantPayment {
				t.Errorf("payment state = %q, want %q", r.PaymentState, tc.wantPayment)
			}
			if r.RefundAmountCents == nil {
				t.Fatal("refund amount not recorded")
			}
			if *r.RefundAmountCents != tc.wantRefund {
				t.Errorf("refund = %d cents, want %d", *r.RefundAmountCents, tc.wantRefund)
			}
			if !r.State.Cancelled() {
				t.Errorf("state = %q, want a cancelled state", r.State)
			}
		})
	}
}

func TestPublishFailureDoesNotFailBooking(t *testing.T) {
	store := seededStore(10, time.Now().AddDate(0, 0, 60))
	pub := &capturePublisher{fail: true}
	mgr := NewManager(store, pub, time.Second)

	res, err := mgr.Reserve(context.Background(), ReserveInput{
		UserID: 1, TourID: 1, DepartureID: 10, PartySize: 2,
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if res.Notified {
		t.Error("Notified = true despite broker failure")
	}
	// The reservation and its seats must still be committed.
	if got := store.departures[10].OccupiedSeats; got != 2 {
		t.Errorf("occupied = %d, want 2", got)
	}
	if _, ok := store.reservations[res.Reservation.ID]; !ok {
		t.Error("reservation not persisted")
	}
}

func TestLifecycleEventsPublished(t *testing.T) {
	store := seededStore(10, time.Now().AddDate(0, 0, 60))
	pub := &capturePublisher{}
	mgr := NewManager(store, pub, time.Second)
	ctx := context.Background()

	created, err := mgr.Reserve(ctx, ReserveInput{UserID: 1, TourID: 1, DepartureID: 10, PartySize: 2})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if _, err := mgr.Confirm(ctx, ConfirmInput{ReservationID: created.Reservation.ID, PaymentMethod: "card", PaymentRef: "R1"}); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := mgr.Cancel(ctx, CancelInput{ReservationID: created.Reservation.ID, Actor: ActorCustomer}); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	want := []string{
		queue.EventReservationCreated,
		queue.EventReservationConfirmed,
		queue.EventReservationCancelled,
	}
	got := pub.kinds()
	if len(got) != len(want) {
		t.Fatalf("published %d events, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
