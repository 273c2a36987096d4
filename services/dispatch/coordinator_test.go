package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	dispatchRepo "fixitquick/database/repository/dispatch"
	"fixitquick/models"
)

// fakeRepo is an in-memory DispatchRepository with the same atomicity
// guarantees as the Mongo one: every status transition is a compare-and-swap
// under one lock, and AcceptOffer couples the offer and booking writes.
type fakeRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	offers   map[string]*models.JobOffer
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		bookings: make(map[string]*models.Booking),
		offers:   make(map[string]*models.JobOffer),
	}
}

func (r *fakeRepo) CreateBooking(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeRepo) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, dispatchRepo.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeRepo) CompareAndSetBookingStatus(ctx context.Context, id string, expected, next models.BookingStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != expected {
		return false, nil
	}
	b.Status = next
	return true, nil
}

func (r *fakeRepo) CompareAndSetDispatchRound(ctx context.Context, id string, expected, next int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.DispatchRound != expected {
		return false, nil
	}
	b.DispatchRound = next
	return true, nil
}

func (r *fakeRepo) CreateOffer(ctx context.Context, o *models.JobOffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.offers[o.ID] = &cp
	return nil
}

func (r *fakeRepo) GetOfferByID(ctx context.Context, id string) (*models.JobOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok {
		return nil, dispatchRepo.ErrOfferNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeRepo) ListOffersByBooking(ctx context.Context, bookingID string) ([]models.JobOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.JobOffer
	for _, o := range r.offers {
		if o.BookingID == bookingID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListOffersByProvider(ctx context.Context, providerID string, status models.OfferStatus) ([]models.JobOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.JobOffer
	for _, o := range r.offers {
		if o.ProviderID == providerID && o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListSentOffers(ctx context.Context) ([]models.JobOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.JobOffer
	for _, o := range r.offers {
		if o.Status == models.OfferSent {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeRepo) CountSentOffers(ctx context.Context, bookingID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.offers {
		if o.BookingID == bookingID && o.Status == models.OfferSent {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) CompareAndSetOfferStatus(ctx context.Context, id string, expected, next models.OfferStatus, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok || o.Status != expected {
		return false, nil
	}
	o.Status = next
	o.ResolvedAt = time.Now()
	if reason != "" {
		o.DeclineReason = reason
	}
	return true, nil
}

func (r *fakeRepo) AcceptOffer(ctx context.Context, offerID, bookingID, providerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, okO := r.offers[offerID]
	b, okB := r.bookings[bookingID]
	if !okO || !okB {
		return false, nil
	}
	if o.Status != models.OfferSent || b.Status != models.BookingOfferOutstanding {
		return false, nil
	}
	o.Status = models.OfferAccepted
	o.ResolvedAt = time.Now()
	b.Status = models.BookingAssigned
	b.AssignedProviderID = providerID
	b.AcceptedOfferID = offerID
	return true, nil
}

// fakeSelector returns the queued candidate lists one dispatch round at a
// time, then runs dry.
type fakeSelector struct {
	mu     sync.Mutex
	rounds [][]models.Candidate
	calls  int
}

func (s *fakeSelector) SelectCandidates(ctx context.Context, booking *models.Booking, exclude []string) ([]models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.rounds) == 0 {
		return nil, nil
	}
	next := s.rounds[0]
	s.rounds = s.rounds[1:]
	return next, nil
}

// fakeScheduler records timer arms and cancels.
type fakeScheduler struct {
	mu        sync.Mutex
	scheduled map[string]time.Time
	cancelled map[string]bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		scheduled: make(map[string]time.Time),
		cancelled: make(map[string]bool),
	}
}

func (s *fakeScheduler) Schedule(ctx context.Context, offerID string, fireAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled[offerID] = fireAt
	return nil
}

func (s *fakeScheduler) Cancel(ctx context.Context, offerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled[offerID] = true
	return nil
}

// flakyNotifier fails every delivery.
type flakyNotifier struct{}

func (flakyNotifier) NotifyOfferCreated(ctx context.Context, offer *models.JobOffer) error {
	return context.DeadlineExceeded
}

func (flakyNotifier) NotifyOfferOutcome(ctx context.Context, offer *models.JobOffer, outcome models.OfferOutcome) error {
	return context.DeadlineExceeded
}

func seedBooking(r *fakeRepo, id string) {
	r.bookings[id] = &models.Booking{
		ID:          id,
		CustomerID:  "cust-1",
		ServiceType: "plumbing",
		Urgency:     models.UrgencyNormal,
		Status:      models.BookingAwaitingDispatch,
	}
}

func candidates(ids ...string) []models.Candidate {
	out := make([]models.Candidate, 0, len(ids))
	for i, id := range ids {
		out = append(out, models.Candidate{ProviderID: id, RankHint: float64(100 - i)})
	}
	return out
}

func newTestCoordinator(repo *fakeRepo, sel *fakeSelector, sched *fakeScheduler) *DefaultCoordinator {
	return &DefaultCoordinator{
		Repo:           repo,
		Selector:       sel,
		Scheduler:      sched,
		Events:         NewBroker(),
		Policy:         models.PolicyBroadcast,
		OfferWindow:    5 * time.Minute,
		BroadcastLimit: 5,
		MaxRounds:      3,
	}
}

func TestDispatchBroadcastCreatesOffers(t *testing.T) {
	repo := newFakeRepo()
	seedBooking(repo, "b1")
	sel := &fakeSelector{rounds: [][]models.Candidate{candidates("p1", "p2", "p3")}}
	sched := newFakeScheduler()
	c := newTestCoordinator(repo, sel, sched)

	result, err := c.Dispatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result.Outcome != models.DispatchDispatched {
		t.Fatalf("expected dispatched, got %s", result.Outcome)
	}
	if len(result.OfferIDs) != 3 {
		t.Fatalf("expected 3 offers, got %d", len(result.OfferIDs))
	}
	if result.Round != 1 {
		t.Fatalf("expected round 1, got %d", result.Round)
	}

	b, _ := repo.GetBookingByID(context.Background(), "b1")
	if b.Status != models.BookingOfferOutstanding {
		t.Fatalf("expected offer_outstanding, got %s", b.Status)
	}
	if len(sched.scheduled) != 3 {
		t.Fatalf("expected 3 timers armed, got %d", len(sched.scheduled))
	}
}

func TestDispatchRespectsBroadcastLimit(t *testing.T) {
	repo := newFakeRepo()
	seedBooking(repo, "b1")
	sel := &fakeSelector{rounds: [][]models.Candidate{candidates("p1", "p2", "p3", "p4", "p5", "p6", "p7")}}
	c := newTestCoordinator(repo, sel, newFakeScheduler())
	c.BroadcastLimit = 4

	result, err := c.Dispatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(result.OfferIDs) != 4 {
		t.Fatalf("expected 4 offers, got %d", len(result.OfferIDs))
	}
}

func TestConcurrentAcceptsSingleWinner(t *testing.T) {
	repo := newFakeRepo()
	seedBooking(repo, "b1")
	sel := &fakeSelector{rounds: [][]models.Candidate{candidates("p1", "p2", "p3", "p4", "p5")}}
	c := newTestCoordinator(repo, sel, newFakeScheduler())

	result, err := c.Dispatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	outcomes := make([]models.OfferOutcome, len(result.OfferIDs))
	var wg sync.WaitGroup
	for i, offerID := range result.OfferIDs {
		wg.Add(1)
		go func(i int, offerID string) {
			defer wg.Done()
			out, err := c.Accept(context.Background(), offerID, "")
			if err != nil {
				t.Errorf("accept %s: %v", offerID, err)
				return
			}
			outcomes[i] = out
		}(i, offerID)
	}
	wg.Wait()

	var wins, losses int
	for _, out := range outcomes {
		switch out {
		case models.OutcomeWon:
			wins++
		case models.OutcomeLost:
			losses++
		default:
			t.Fatalf("unexpected outcome %s", out)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", wins)
	}
	if losses != len(result.OfferIDs)-1 {
		t.Fatalf("expected %d losses, got %d", len(result.OfferIDs)-1, losses)
	}

	b, _ := repo.GetBookingByID(context.Background(), "b1")
	if b.Status != models.BookingAssigned {
		t.Fatalf("expected assigned, got %s", b.Status)
	}
	if b.AssignedProviderID == "" || b.AcceptedOfferID == "" {
		t.Fatal("assignment fields not set")
	}

	// Every losing offer ends terminal; none stays claimable.
	offers, _ := repo.ListOffersByBooking(context.Background(), "b1")
	var accepted int
	for _, o := range offers {
		if o.Status == models.OfferAccepted {
			accepted++
			continue
		}
		if o.Status != models.OfferSuperseded {
			t.Fatalf("offer %s left in status %s", o.ID, o.Status)
		}
	}
	if accepted != 1 {
		t.Fatalf("expected 1 accepted offer, got %d", accepted)
	}
}

func TestSequentialAdvanceOnDecline(t *testing.T) {
	repo := newFakeRepo()
	seedBooking(repo, "b1")
	sel := &fakeSelector{rounds: [][]models.Candidate{candidates("p1"), candidates("p2")}}
	c := newTestCoordinator(repo, sel, newFakeScheduler())
	c.Policy = models.PolicySequential

	result, err := c.Dispatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(result.OfferIDs) != 1 {
		t.Fatalf("sequential round should create 1 offer, got %d", len(result.OfferIDs))
	}

	out, err := c.Decline(context.Background(), result.OfferIDs[0], "p1", "busy")
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if out != models.OutcomeDeclined {
		t.Fatalf("expected declined, got %s", out)
	}

	// The decline advanced dispatch to the next candidate.
	offers, _ := repo.ListOffersByProvider(context.Background(), "p2", models.OfferSent)
	if len(offers) != 1 {
		t.Fatalf("expected a fresh offer for p2, got %d", len(offers))
	}
	b, _ := repo.GetBookingByID(context.Background(), "b1")
	if b.DispatchRound != 2 {
		t.Fatalf("expected round 2, got %d", b.DispatchRound)
	}
}

// racingRepo holds every sent-count snapshot until both declines have
// committed, so two resolutions of the last outstanding offers race into
// re-dispatch at the same time.
type racingRepo struct {
	*fakeRepo
	declined sync.WaitGroup
}

func (r *racingRepo) CompareAndSetOfferStatus(ctx context.Context, id string, expected, next models.OfferStatus, reason string) (bool, error) {
	ok, err := r.fakeRepo.CompareAndSetOfferStatus(ctx, id, expected, next, reason)
	if ok && next == models.OfferDeclined {
		r.declined.Done()
	}
	return ok, err
}

func (r *racingRepo) CountSentOffers(ctx context.Context, bookingID string) (int64, error) {
	r.declined.Wait()
	return r.fakeRepo.CountSentOffers(ctx, bookingID)
}

// exclusionSelector serves a fixed provider pool minus prior offer holders,
// the way a live search behaves for concurrent callers.
type exclusionSelector struct {
	pool []string
}

func (s *exclusionSelector) SelectCandidates(ctx context.Context, booking *models.Booking, exclude []string) ([]models.Candidate, error) {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var out []models.Candidate
	for _, id := range s.pool {
		if !skip[id] {
			out = append(out, models.Candidate{ProviderID: id, RankHint: 1})
		}
	}
	return out, nil
}

func TestConcurrentDeclinesDispatchOneRound(t *testing.T) {
	base := newFakeRepo()
	seedBooking(base, "b1")
	repo := &racingRepo{fakeRepo: base}
	repo.declined.Add(2)

	c := &DefaultCoordinator{
		Repo:           repo,
		Selector:       &exclusionSelector{pool: []string{"p1", "p2", "p3"}},
		Scheduler:      newFakeScheduler(),
		Events:         NewBroker(),
		Policy:         models.PolicyBroadcast,
		OfferWindow:    5 * time.Minute,
		BroadcastLimit: 2,
		MaxRounds:      3,
	}

	result, err := c.Dispatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(result.OfferIDs) != 2 {
		t.Fatalf("expected 2 first-round offers, got %d", len(result.OfferIDs))
	}

	// Both first-round offers are declined at the same time; each caller
	// observes zero outstanding offers and tries to start the next round.
	var wg sync.WaitGroup
	for _, offerID := range result.OfferIDs {
		wg.Add(1)
		go func(offerID string) {
			defer wg.Done()
			out, err := c.Decline(context.Background(), offerID, "", "busy")
			if err != nil {
				t.Errorf("decline %s: %v", offerID, err)
				return
			}
			if out != models.OutcomeDeclined {
				t.Errorf("decline %s: unexpected outcome %s", offerID, out)
			}
		}(offerID)
	}
	wg.Wait()

	// Exactly one re-dispatch may win: one fresh offer, one round increment.
	offers, _ := base.ListOffersByBooking(context.Background(), "b1")
	if len(offers) != 3 {
		t.Fatalf("expected 3 offers total, got %d", len(offers))
	}
	sent, _ := base.CountSentOffers(context.Background(), "b1")
	if sent != 1 {
		t.Fatalf("next candidate holds %d simultaneous sent offers, want 1", sent)
	}
	b, _ := base.GetBookingByID(context.Background(), "b1")
	if b.DispatchRound != 2 {
		t.Fatalf("expected round 2, got %d", b.DispatchRound)
	}
	if b.Status != models.BookingOfferOutstanding {
		t.Fatalf("expected offer_outstanding, got %s", b.Status)
	}
}

func TestExpiryAdvancesAndIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	seedBooking(repo, "b1")
	sel := &fakeSelector{rounds: [][]models.Candidate{candidates("p1"), candidates("p2")}}
	c := newTestCoordinator(repo, sel, newFakeScheduler())
	c.Policy = models.PolicySequential

	result, err := c.Dispatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	offerID := result.OfferIDs[0]

	if err := c.HandleExpiry(context.Background(), offerID); err != nil {
		t.Fatalf("expiry: %v", err)
	}
	o, _ := repo.GetOfferByID(context.Background(), offerID)
	if o.Status != models.OfferExpired {
		t.Fatalf("expected expired, got %s", o.Status)
	}

	b, _ := repo.GetBookingByID(context.Background(), "b1")
	if b.DispatchRound != 2 {
		t.Fatalf("expected advance to round 2, got %d", b.DispatchRound)
	}

	// A duplicate fire is a no-op: no new round, no status change.
	if err := c.HandleExpiry(context.Background(), offerID); err != nil {
		t.Fatalf("duplicate expiry: %v", err)
	}
	b, _ = repo.GetBookingByID(context.Background(), "b1")
	if b.DispatchRound != 2 {
		t.Fatalf("duplicate fire advanced the booking to round %d", b.DispatchRound)
	}
}

func TestLateAcceptOnExpiredOfferMovesOn(t *testing.T) {
	repo := newFakeRepo()
	seedBooking(repo, "b1")
	sel := &fakeSelector{rounds: [][]models.Candidate{candidates("p1"), candidates("p2")}}
	c := newTestCoordinator(repo, sel, newFakeScheduler())
	c.Policy = models.PolicySequential

	clock := time.Now()
	c.Now = func() time.Time { return clock }

	result, err := c.Dispatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	offerID := result.OfferIDs[0]

	// The provider answers after the window without the timer having fired.
	clock = clock.Add(c.OfferWindow + time.Second)
	out, err := c.Accept(context.Background(), offerID, "p1")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if out != models.OutcomeExpired {
		t.Fatalf("expected expired, got %s", out)
	}

	// The late answer resolved the offer and moved on to the next candidate.
	offers, _ := repo.ListOffersByProvider(context.Background(), "p2", models.OfferSent)
	if len(offers) != 1 {
		t.Fatalf("expected next-candidate offer for p2, got %d", len(offers))
	}
}

func TestCancelThenLateAccept(t *testing.T) {
	repo := newFakeRepo()
	seedBooking(repo, "b1")
	sel := &fakeSelector{rounds: [][]models.Candidate{candidates("p1", "p2")}}
	sched := newFakeScheduler()
	c := newTestCoordinator(repo, sel, sched)

	result, err := c.Dispatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if err := c.CancelBooking(context.Background(), "b1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	b, _ := repo.GetBookingByID(context.Background(), "b1")
	if b.Status != models.BookingCancelled {
		t.Fatalf("expected cancelled, got %s", b.Status)
	}

	// Outstanding offers were retracted and their timers cancelled.
	for _, offerID := range result.OfferIDs {
		o, _ := repo.GetOfferByID(context.Background(), offerID)
		if o.Status != models.OfferSuperseded {
			t.Fatalf("offer %s left in status %s", offerID, o.Status)
		}
		if !sched.cancelled[offerID] {
			t.Fatalf("timer for %s not cancelled", offerID)
		}
	}

	// A late accept cannot resurrect the booking.
	out, err := c.Accept(context.Background(), result.OfferIDs[0], "p1")
	if err != nil {
		t.Fatalf("late accept: %v", err)
	}
	if out != models.OutcomeAlreadyResolved {
		t.Fatalf("expected already_resolved, got %s", out)
	}
	b, _ = repo.GetBookingByID(context.Background(), "b1")
	if b.Status != models.BookingCancelled {
		t.Fatalf("late accept resurrected the booking to %s", b.Status)
	}
}

func TestCancelIsIdempotentAndRefusesTerminal(t *testing.T) {
	repo := newFakeRepo()
	seedBooking(repo, "b1")
	c := newTestCoordinator(repo, &fakeSelector{}, newFakeScheduler())

	if err := c.CancelBooking(context.Background(), "b1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := c.CancelBooking(context.Background(), "b1"); err != nil {
		t.Fatalf("repeat cancel should be a no-op, got %v", err)
	}

	repo.bookings["b2"] = &models.Booking{ID: "b2", Status: models.BookingCompleted}
	if err := c.CancelBooking(context.Background(), "b2"); err != ErrBookingTerminal {
		t.Fatalf("expected ErrBookingTerminal, got %v", err)
	}
}

func TestExhaustionMarksUnfulfilled(t *testing.T) {
	repo := newFakeRepo()
	seedBooking(repo, "b1")
	sel := &fakeSelector{} // no candidates at all
	c := newTestCoordinator(repo, sel, newFakeScheduler())

	result, err := c.Dispatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result.Outcome != models.DispatchUnfulfilled {
		t.Fatalf("expected unfulfilled, got %s", result.Outcome)
	}
	b, _ := repo.GetBookingByID(context.Background(), "b1")
	if b.Status != models.BookingUnfulfilled {
		t.Fatalf("expected unfulfilled booking, got %s", b.Status)
	}
}

func TestBroadcastRoundCap(t *testing.T) {
	repo := newFakeRepo()
	seedBooking(repo, "b1")
	repo.bookings["b1"].Status = models.BookingOfferOutstanding
	repo.bookings["b1"].DispatchRound = 3
	sel := &fakeSelector{rounds: [][]models.Candidate{candidates("p9")}}
	c := newTestCoordinator(repo, sel, newFakeScheduler())

	result, err := c.Dispatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result.Outcome != models.DispatchUnfulfilled {
		t.Fatalf("expected unfulfilled past the round cap, got %s", result.Outcome)
	}
	if sel.calls != 0 {
		t.Fatalf("selector should not run past the round cap")
	}
}

func TestDispatchOnResolvedBooking(t *testing.T) {
	repo := newFakeRepo()
	repo.bookings["b1"] = &models.Booking{ID: "b1", Status: models.BookingAssigned}
	c := newTestCoordinator(repo, &fakeSelector{}, newFakeScheduler())

	result, err := c.Dispatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result.Outcome != models.DispatchAlreadyResolved {
		t.Fatalf("expected already_resolved, got %s", result.Outcome)
	}
}

func TestNotifierFailureDoesNotBlockDispatch(t *testing.T) {
	repo := newFakeRepo()
	seedBooking(repo, "b1")
	sel := &fakeSelector{rounds: [][]models.Candidate{candidates("p1", "p2")}}
	c := newTestCoordinator(repo, sel, newFakeScheduler())
	c.Notifier = flakyNotifier{}

	result, err := c.Dispatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("dispatch must survive notifier failures: %v", err)
	}
	if len(result.OfferIDs) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(result.OfferIDs))
	}

	out, err := c.Accept(context.Background(), result.OfferIDs[0], "p1")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if out != models.OutcomeWon {
		t.Fatalf("expected won, got %s", out)
	}
}

func TestAcceptByWrongProvider(t *testing.T) {
	repo := newFakeRepo()
	seedBooking(repo, "b1")
	sel := &fakeSelector{rounds: [][]models.Candidate{candidates("p1")}}
	c := newTestCoordinator(repo, sel, newFakeScheduler())

	result, err := c.Dispatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	out, err := c.Accept(context.Background(), result.OfferIDs[0], "intruder")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if out != models.OutcomeNotFound {
		t.Fatalf("expected not_found for a foreign provider, got %s", out)
	}
	o, _ := repo.GetOfferByID(context.Background(), result.OfferIDs[0])
	if o.Status != models.OfferSent {
		t.Fatalf("foreign accept must not touch the offer, got %s", o.Status)
	}
}

func TestStartAndCompleteLifecycle(t *testing.T) {
	repo := newFakeRepo()
	seedBooking(repo, "b1")
	sel := &fakeSelector{rounds: [][]models.Candidate{candidates("p1")}}
	c := newTestCoordinator(repo, sel, newFakeScheduler())

	result, err := c.Dispatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out, _ := c.Accept(context.Background(), result.OfferIDs[0], "p1"); out != models.OutcomeWon {
		t.Fatalf("expected won, got %s", out)
	}

	if err := c.StartJob(context.Background(), "b1", "someone-else"); err != ErrNotAssignedProvider {
		t.Fatalf("expected ErrNotAssignedProvider, got %v", err)
	}
	if err := c.StartJob(context.Background(), "b1", "p1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.StartJob(context.Background(), "b1", "p1"); err != ErrStaleTransition {
		t.Fatalf("double start should be stale, got %v", err)
	}
	if err := c.CompleteJob(context.Background(), "b1", "p1"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	b, _ := repo.GetBookingByID(context.Background(), "b1")
	if b.Status != models.BookingCompleted {
		t.Fatalf("expected completed, got %s", b.Status)
	}
}

func TestRecoverRearmsAndExpires(t *testing.T) {
	repo := newFakeRepo()
	repo.bookings["b1"] = &models.Booking{ID: "b1", Status: models.BookingOfferOutstanding, DispatchRound: 1}
	now := time.Now()

	// One offer already past its window, one still live.
	repo.offers["stale"] = &models.JobOffer{
		ID: "stale", BookingID: "b1", ProviderID: "p1",
		Status: models.OfferSent, ExpiresAt: now.Add(-time.Minute),
	}
	repo.offers["live"] = &models.JobOffer{
		ID: "live", BookingID: "b1", ProviderID: "p2",
		Status: models.OfferSent, ExpiresAt: now.Add(time.Minute),
	}

	sched := newFakeScheduler()
	c := newTestCoordinator(repo, &fakeSelector{}, sched)
	c.Now = func() time.Time { return now }

	if err := c.Recover(context.Background()); err != nil {
		t.Fatalf("recover: %v", err)
	}

	stale, _ := repo.GetOfferByID(context.Background(), "stale")
	if stale.Status != models.OfferExpired {
		t.Fatalf("expected stale offer expired, got %s", stale.Status)
	}
	live, _ := repo.GetOfferByID(context.Background(), "live")
	if live.Status != models.OfferSent {
		t.Fatalf("live offer must stay sent, got %s", live.Status)
	}
	if _, ok := sched.scheduled["live"]; !ok {
		t.Fatal("live offer timer not re-armed")
	}
	if _, ok := sched.scheduled["stale"]; ok {
		t.Fatal("stale offer must not get a timer")
	}
}
