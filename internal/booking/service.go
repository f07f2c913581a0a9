package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/classroom-booking/internal/availability"
	"github.com/iliyamo/classroom-booking/internal/cache"
	"github.com/iliyamo/classroom-booking/internal/lock"
	"github.com/iliyamo/classroom-booking/internal/model"
	"github.com/iliyamo/classroom-booking/internal/repository"
)

// SessionStore reads session definitions from the authoritative store.
// The write transaction never reads sessions through the cache.
type SessionStore interface {
	FindByDateClassroom(ctx context.Context, date, classroom string) (*model.Session, error)
}

// ReservationStore is the authoritative, durable reservation table.
type ReservationStore interface {
	Append(ctx context.Context, res *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	UpdateByID(ctx context.Context, res *model.Reservation) error
	ListBySession(ctx context.Context, date, classroom string) ([]model.Reservation, error)
	ListActiveByStudentAndDate(ctx context.Context, studentID uint64, date string) ([]model.Reservation, error)
}

// BillingStore records billing entries for completed reservations.
type BillingStore interface {
	Append(ctx context.Context, e *model.BillingEntry) error
}

// Invalidator drops derived cache entries after a committed write.
// *cache.Cache satisfies it.
type Invalidator interface {
	Invalidate(ctx context.Context, key string)
}

// Notifier receives committed-reservation events.  Implementations are
// fire-and-forget: failures are logged downstream and never propagate
// into the write transaction.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, res *model.Reservation)
}

// Service executes reservation mutations.  Every mutation acquires the
// per-(date, classroom) lock, re-validates against the authoritative
// store, persists, then invalidates the read-side snapshots.  The lock
// is released on every exit path.
type Service struct {
	sessions     SessionStore
	reservations ReservationStore
	billing      BillingStore
	locker       lock.Locker
	invalidator  Invalidator
	notifier     Notifier
	lockWait     time.Duration
}

// NewService wires a Service.  notifier may be nil when no event sink is
// configured.
func NewService(
	sessions SessionStore,
	reservations ReservationStore,
	billing BillingStore,
	locker lock.Locker,
	invalidator Invalidator,
	notifier Notifier,
	lockWait time.Duration,
) *Service {
	return &Service{
		sessions:     sessions,
		reservations: reservations,
		billing:      billing,
		locker:       locker,
		invalidator:  invalidator,
		notifier:     notifier,
		lockWait:     lockWait,
	}
}

// BookRequest carries the client-supplied fields of a new reservation.
// The reservation id and status are always server-generated.
type BookRequest struct {
	StudentID    uint64 `json:"-"`
	Classroom    string `json:"classroom"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	FirstLecture bool   `json:"first_lecture"`
	Options      string `json:"options"`
	// Waitlist requests a waitlist add when the slot is full.  It has no
	// effect when capacity remains.
	Waitlist bool `json:"waitlist"`
}

// UpdatePatch carries partial updates.  Nil fields are left untouched;
// non-scheduling fields merge verbatim.
type UpdatePatch struct {
	Classroom    *string `json:"classroom"`
	Date         *string `json:"date"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	FirstLecture *bool   `json:"first_lecture"`
	Options      *string `json:"options"`
}

func (p *UpdatePatch) touchesSchedule() bool {
	return p.Classroom != nil || p.Date != nil || p.StartTime != nil || p.EndTime != nil || p.FirstLecture != nil
}

func lockName(date, classroom string) string {
	return date + ":" + classroom
}

// Book admits a new reservation.  Validation happens twice: cheap input
// checks before the lock, and the capacity/duplicate checks against the
// authoritative store while the lock is held.  Cached data is never
// consulted here; staleness could admit an over-capacity booking.
func (s *Service) Book(ctx context.Context, req BookRequest) (*model.Reservation, error) {
	if err := validateBookRequest(&req); err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, lockName(req.Date, req.Classroom))
	if err != nil {
		return nil, err
	}
	defer release()

	sess, existing, err := s.loadAuthoritative(ctx, req.Date, req.Classroom)
	if err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(ctx, req.StudentID, req.Date, ""); err != nil {
		return nil, err
	}

	status := model.StatusConfirmed
	full, err := slotIsFull(sess, existing, req.StartTime, req.EndTime, req.FirstLecture)
	if err != nil {
		return nil, err
	}
	if full {
		if !req.Waitlist {
			return nil, ErrCapacityFull
		}
		// Explicit waitlist adds bypass the capacity check only; the
		// duplicate-same-day rule above still applies.
		status = model.StatusWaitlisted
	}

	res := &model.Reservation{
		ID:            uuid.NewString(),
		StudentID:     req.StudentID,
		Classroom:     req.Classroom,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Status:        status,
		Venue:         sess.Venue,
		ClassroomType: sess.Type,
		FirstLecture:  req.FirstLecture,
		Options:       req.Options,
	}
	if err := s.reservations.Append(ctx, res); err != nil {
		return nil, fmt.Errorf("persist reservation: %w", err)
	}

	s.invalidator.Invalidate(ctx, cache.KeyAllReservations)
	if res.Status == model.StatusConfirmed && s.notifier != nil {
		s.notifier.ReservationConfirmed(ctx, res)
	}
	return res, nil
}

// Cancel marks a reservation cancelled.  Cancelling an already-cancelled
// reservation reports success without side effects so retries are safe.
func (s *Service) Cancel(ctx context.Context, id string, studentID uint64, reason string) error {
	if id == "" {
		return fmt.Errorf("%w: reservation id required", ErrValidation)
	}
	res, release, err := s.lockReservation(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	if res.StudentID != studentID {
		return ErrNotOwner
	}
	if res.Status == model.StatusCancelled {
		return nil // idempotent
	}
	if !res.CanTransition(model.StatusCancelled) {
		return ErrImmutable
	}
	res.Status = model.StatusCancelled
	res.CancelReason = reason
	if err := s.reservations.UpdateByID(ctx, res); err != nil {
		return fmt.Errorf("persist cancellation: %w", err)
	}
	s.invalidator.Invalidate(ctx, cache.KeyAllReservations)
	return nil
}

// Update applies a patch to a reservation.  Scheduling changes re-run
// the same capacity and duplicate validation as Book, with the
// reservation's own prior occupancy excluded from the counts.
func (s *Service) Update(ctx context.Context, id string, studentID uint64, patch UpdatePatch) (*model.Reservation, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: reservation id required", ErrValidation)
	}

	// When the reservation moves between sessions both scopes are
	// locked, in sorted order so concurrent movers cannot deadlock.  The
	// current scope comes from an unlocked read, so the row is re-read
	// under the lock and the acquisition retried when a concurrent move
	// relocated it in between.
	var (
		res     *model.Reservation
		release func()
	)
	for attempt := 0; ; attempt++ {
		scope, err := s.reservations.FindByID(ctx, id)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		targetDate := scope.Date
		if patch.Date != nil {
			targetDate = *patch.Date
		}
		targetRoom := scope.Classroom
		if patch.Classroom != nil {
			targetRoom = *patch.Classroom
		}
		if !model.ValidDate(targetDate) || targetRoom == "" {
			return nil, fmt.Errorf("%w: invalid date or classroom", ErrValidation)
		}
		current := lockName(scope.Date, scope.Classroom)
		rel, err := s.acquireAll(ctx, current, lockName(targetDate, targetRoom))
		if err != nil {
			return nil, err
		}
		res, err = s.reservations.FindByID(ctx, id)
		if err != nil {
			rel()
			return nil, mapStoreErr(err)
		}
		if lockName(res.Date, res.Classroom) == current {
			release = rel
			break
		}
		rel()
		if attempt == scopeRetries-1 {
			return nil, ErrLockTimeout
		}
	}
	defer release()

	if res.StudentID != studentID {
		return nil, ErrNotOwner
	}
	if res.Status == model.StatusCancelled {
		return nil, ErrImmutable
	}
	if patch.touchesSchedule() && res.Status == model.StatusCompleted {
		// Completed reservations accept descriptive edits only.
		return nil, ErrImmutable
	}

	updated := *res
	if patch.Classroom != nil {
		updated.Classroom = *patch.Classroom
	}
	if patch.Date != nil {
		updated.Date = *patch.Date
	}
	if patch.StartTime != nil {
		updated.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		updated.EndTime = *patch.EndTime
	}
	if patch.FirstLecture != nil {
		updated.FirstLecture = *patch.FirstLecture
	}
	if patch.Options != nil {
		updated.Options = *patch.Options
	}

	if patch.touchesSchedule() {
		if err := validateWindow(updated.StartTime, updated.EndTime); err != nil {
			return nil, err
		}
		sess, existing, err := s.loadAuthoritative(ctx, updated.Date, updated.Classroom)
		if err != nil {
			return nil, err
		}
		if err := s.checkDuplicate(ctx, studentID, updated.Date, res.ID); err != nil {
			return nil, err
		}
		// Exclude the reservation's own prior occupancy.
		others := make([]model.Reservation, 0, len(existing))
		for i := range existing {
			if existing[i].ID != res.ID {
				others = append(others, existing[i])
			}
		}
		if updated.OccupiesCapacity() {
			full, err := slotIsFull(sess, others, updated.StartTime, updated.EndTime, updated.FirstLecture)
			if err != nil {
				return nil, err
			}
			if full {
				return nil, ErrCapacityFull
			}
		}
		updated.Venue = sess.Venue
		updated.ClassroomType = sess.Type
	}

	if err := s.reservations.UpdateByID(ctx, &updated); err != nil {
		return nil, fmt.Errorf("persist update: %w", err)
	}
	s.invalidator.Invalidate(ctx, cache.KeyAllReservations)
	return &updated, nil
}

// ConfirmWaitlisted promotes a WAITLISTED reservation to CONFIRMED.  The
// capacity check runs again here: waitlist adds never set capacity
// aside, so promoting without the check could over-book the slot.
// Confirming an already-confirmed reservation is a no-op success.
func (s *Service) ConfirmWaitlisted(ctx context.Context, id string, studentID uint64) (*model.Reservation, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: reservation id required", ErrValidation)
	}
	res, release, err := s.lockReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	if res.StudentID != studentID {
		return nil, ErrNotOwner
	}
	if res.Status == model.StatusConfirmed {
		return res, nil // idempotent
	}
	if !res.CanTransition(model.StatusConfirmed) {
		return nil, ErrImmutable
	}

	sess, existing, err := s.loadAuthoritative(ctx, res.Date, res.Classroom)
	if err != nil {
		return nil, err
	}
	// The waitlisted reservation itself never counts toward occupancy,
	// so no self-exclusion is needed here.
	full, err := slotIsFull(sess, existing, res.StartTime, res.EndTime, res.FirstLecture)
	if err != nil {
		return nil, err
	}
	if full {
		return nil, ErrCapacityFull
	}

	res.Status = model.StatusConfirmed
	if err := s.reservations.UpdateByID(ctx, res); err != nil {
		return nil, fmt.Errorf("persist confirmation: %w", err)
	}
	s.invalidator.Invalidate(ctx, cache.KeyAllReservations)
	if s.notifier != nil {
		s.notifier.ReservationConfirmed(ctx, res)
	}
	return res, nil
}

// Complete marks a CONFIRMED reservation COMPLETED and writes its
// billing entry.  Completing an already-completed reservation is a
// no-op success; the billing table's unique key on reservation_id backs
// that up at the storage level.
func (s *Service) Complete(ctx context.Context, id string, studentID uint64) (*model.Reservation, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: reservation id required", ErrValidation)
	}
	res, release, err := s.lockReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	if res.StudentID != studentID {
		return nil, ErrNotOwner
	}
	if res.Status == model.StatusCompleted {
		return res, nil // idempotent
	}
	if !res.CanTransition(model.StatusCompleted) {
		return nil, ErrImmutable
	}

	var rate uint32
	if sess, err := s.sessions.FindByDateClassroom(ctx, res.Date, res.Classroom); err == nil {
		rate = sess.BillingRateCents
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load session: %w", err)
	}

	res.Status = model.StatusCompleted
	if err := s.reservations.UpdateByID(ctx, res); err != nil {
		return nil, fmt.Errorf("persist completion: %w", err)
	}
	entry := &model.BillingEntry{
		ReservationID: res.ID,
		StudentID:     res.StudentID,
		Date:          res.Date,
		Month:         res.Date[:7],
		AmountCents:   rate,
	}
	if err := s.billing.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("persist billing entry: %w", err)
	}
	s.invalidator.Invalidate(ctx, cache.KeyAllReservations)
	s.invalidator.Invalidate(ctx, cache.KeyAccountingMaster)
	return res, nil
}

// ---- internals ----

// scopeRetries bounds how often a lock acquisition chases a reservation
// that concurrent updates keep moving between sessions.
const scopeRetries = 3

// lockReservation locks the session scope a reservation belongs to and
// returns the row as re-read under that lock.  The scope is learned from
// an unlocked read, so a concurrent update can move the row to another
// session before the lock is held; the re-read detects that and the
// acquisition retries against the new scope, guaranteeing the returned
// row is covered by the held lock.
func (s *Service) lockReservation(ctx context.Context, id string) (*model.Reservation, func(), error) {
	for attempt := 0; attempt < scopeRetries; attempt++ {
		scope, err := s.reservations.FindByID(ctx, id)
		if err != nil {
			return nil, nil, mapStoreErr(err)
		}
		locked := lockName(scope.Date, scope.Classroom)
		release, err := s.acquire(ctx, locked)
		if err != nil {
			return nil, nil, err
		}
		res, err := s.reservations.FindByID(ctx, id)
		if err != nil {
			release()
			return nil, nil, mapStoreErr(err)
		}
		if lockName(res.Date, res.Classroom) == locked {
			return res, release, nil
		}
		release()
	}
	return nil, nil, ErrLockTimeout
}

func (s *Service) acquire(ctx context.Context, name string) (func(), error) {
	release, err := s.locker.TryAcquire(ctx, name, s.lockWait)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return nil, ErrLockTimeout
		}
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	return release, nil
}

// acquireAll locks the named scopes in sorted order and returns a single
// release covering all of them.
func (s *Service) acquireAll(ctx context.Context, names ...string) (func(), error) {
	uniq := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			uniq = append(uniq, n)
		}
	}
	sort.Strings(uniq)

	releases := make([]func(), 0, len(uniq))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, n := range uniq {
		r, err := s.acquire(ctx, n)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, r)
	}
	return releaseAll, nil
}

// loadAuthoritative re-reads the session and its reservations directly
// from the durable store, bypassing every cache.
func (s *Service) loadAuthoritative(ctx context.Context, date, classroom string) (*model.Session, []model.Reservation, error) {
	sess, err := s.sessions.FindByDateClassroom(ctx, date, classroom)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	if sess.IsCancelled {
		return nil, nil, ErrSessionNotFound
	}
	existing, err := s.reservations.ListBySession(ctx, date, classroom)
	if err != nil {
		return nil, nil, fmt.Errorf("load reservations: %w", err)
	}
	return sess, existing, nil
}

// checkDuplicate enforces one non-cancelled reservation per student per
// day.  excludeID skips the reservation being updated.
func (s *Service) checkDuplicate(ctx context.Context, studentID uint64, date, excludeID string) error {
	active, err := s.reservations.ListActiveByStudentAndDate(ctx, studentID, date)
	if err != nil {
		return fmt.Errorf("load student reservations: %w", err)
	}
	for i := range active {
		if active[i].ID != excludeID {
			return ErrDuplicateBooking
		}
	}
	return nil
}

// slotIsFull reports whether the [startTime, endTime) window can no
// longer be admitted.  A booking occupies every slot its interval
// intersects, so every spanned slot must have remaining capacity; one
// full slot rejects the whole window.  First lectures additionally need
// room in the beginner sub-allocation when their window touches it.
func slotIsFull(sess *model.Session, existing []model.Reservation, startTime, endTime string, firstLecture bool) (bool, error) {
	spanned, err := availability.SlotsSpanned(sess, startTime, endTime)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	avail, err := availability.Compute(sess, existing)
	if err != nil {
		return false, err
	}
	for _, slot := range spanned {
		if avail.PerSlot[slot] == 0 {
			return true, nil
		}
	}
	if firstLecture && sess.BeginnerCapacity > 0 {
		remaining, constrained, err := availability.BeginnerRemaining(sess, existing, startTime, endTime)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if constrained && remaining == 0 {
			return true, nil
		}
	}
	return false, nil
}

func validateBookRequest(req *BookRequest) error {
	if req.StudentID == 0 {
		return fmt.Errorf("%w: student required", ErrValidation)
	}
	if req.Classroom == "" {
		return fmt.Errorf("%w: classroom required", ErrValidation)
	}
	if !model.ValidDate(req.Date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	return validateWindow(req.StartTime, req.EndTime)
}

func validateWindow(startTime, endTime string) error {
	start, err := model.ParseClock(startTime)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	end, err := model.ParseClock(endTime)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if start >= end {
		return fmt.Errorf("%w: start time must precede end time", ErrValidation)
	}
	return nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("load reservation: %w", err)
}
