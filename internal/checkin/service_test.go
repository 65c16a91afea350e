package checkin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mataleao/backend/internal/models"
)

// fakeStore backs the service with in-memory state. It implements both Store
// and TxStore; InTx snapshots state and restores it when fn fails, matching
// transactional rollback, and serializes tx bodies with a mutex the way the
// class row lock serializes real transactions.
type fakeStore struct {
	mu       sync.Mutex
	classes  map[uuid.UUID]*models.Class
	users    map[uuid.UUID]*models.User
	checkins map[uuid.UUID]*models.Checkin

	increments map[uuid.UUID]int

	insertErr error
	lockCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		classes:    make(map[uuid.UUID]*models.Class),
		users:      make(map[uuid.UUID]*models.User),
		checkins:   make(map[uuid.UUID]*models.Checkin),
		increments: make(map[uuid.UUID]int),
	}
}

func (f *fakeStore) GetClass(_ context.Context, id uuid.UUID) (*models.Class, error) {
	c, ok := f.classes[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) InTx(_ context.Context, fn func(tx TxStore) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := make(map[uuid.UUID]*models.Checkin, len(f.checkins))
	for id, ck := range f.checkins {
		cp := *ck
		snapshot[id] = &cp
	}
	incSnapshot := make(map[uuid.UUID]int, len(f.increments))
	for id, n := range f.increments {
		incSnapshot[id] = n
	}
	if err := fn(f); err != nil {
		f.checkins = snapshot
		f.increments = incSnapshot
		return err
	}
	return nil
}

func (f *fakeStore) LockClass(_ context.Context, classID uuid.UUID) (*models.Class, error) {
	f.lockCalls++
	c, ok := f.classes[classID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) FindByUserAndClass(_ context.Context, userID, classID uuid.UUID) (*models.Checkin, error) {
	for _, ck := range f.checkins {
		if ck.UserID == userID && ck.ClassID == classID {
			cp := *ck
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CountActive(_ context.Context, classID uuid.UUID) (int, error) {
	n := 0
	for _, ck := range f.checkins {
		if ck.ClassID == classID && ck.Status == models.CheckinDone {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) InsertDone(_ context.Context, userID, classID uuid.UUID, at time.Time) (*models.Checkin, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	for _, ck := range f.checkins {
		if ck.UserID == userID && ck.ClassID == classID {
			return nil, ErrAlreadyCheckedIn
		}
	}
	ck := &models.Checkin{
		ID:          uuid.New(),
		UserID:      userID,
		ClassID:     classID,
		Status:      models.CheckinDone,
		CompletedAt: &at,
		CreatedAt:   at,
	}
	f.checkins[ck.ID] = ck
	cp := *ck
	return &cp, nil
}

func (f *fakeStore) Reactivate(_ context.Context, checkinID uuid.UUID, at time.Time) error {
	ck := f.checkins[checkinID]
	ck.Status = models.CheckinDone
	ck.CompletedAt = &at
	return nil
}

func (f *fakeStore) Cancel(_ context.Context, checkinID uuid.UUID) error {
	ck := f.checkins[checkinID]
	ck.Status = models.CheckinCancelled
	ck.CompletedAt = nil
	return nil
}

func (f *fakeStore) IncrementCompletedClasses(_ context.Context, userID uuid.UUID) error {
	f.increments[userID]++
	return nil
}

type fixture struct {
	store      *fakeStore
	svc        *Service
	student    *models.User
	instructor *models.User
	admin      *models.User
	class      *models.Class
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	now := time.Date(2026, 3, 10, 18, 0, 0, 0, loc).UTC()
	store := newFakeStore()

	instructor := &models.User{ID: uuid.New(), Name: "Carlos", Role: models.RoleInstructor, IsActive: true}
	student := &models.User{ID: uuid.New(), Name: "Ana", Role: models.RoleStudent, IsActive: true}
	admin := &models.User{ID: uuid.New(), Name: "Root", Role: models.RoleAdmin, IsActive: true}
	store.users[instructor.ID] = instructor
	store.users[student.ID] = student
	store.users[admin.ID] = admin

	class := &models.Class{
		ID:           uuid.New(),
		StartTime:    now.Add(time.Hour),
		EndTime:      now.Add(2 * time.Hour),
		InstructorID: instructor.ID,
		Capacity:     2,
	}
	store.classes[class.ID] = class

	svc := NewService(store, loc, nil)
	svc.now = func() time.Time { return now }

	return &fixture{store: store, svc: svc, student: student, instructor: instructor, admin: admin, class: class, now: now}
}

func (f *fixture) asStudent() Principal    { return Principal{ID: f.student.ID, Role: models.RoleStudent} }
func (f *fixture) asInstructor() Principal { return Principal{ID: f.instructor.ID, Role: models.RoleInstructor} }
func (f *fixture) asAdmin() Principal      { return Principal{ID: f.admin.ID, Role: models.RoleAdmin} }

func TestCreateSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, f.asStudent(), uuid.Nil, f.class.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Checkin)
	assert.Equal(t, models.CheckinDone, res.Checkin.Status)
	assert.Equal(t, f.student.ID, res.Checkin.UserID)
	assert.False(t, res.Reactivated)
	assert.Equal(t, "you are checked in to this class", res.Message)
	require.NotNil(t, res.Checkin.CompletedAt)
	assert.True(t, res.Checkin.CompletedAt.Equal(f.now))

	assert.Equal(t, 1, f.store.increments[f.student.ID])
	assert.Equal(t, 1, f.store.lockCalls)
}

func TestCreateForOther(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, f.asInstructor(), f.student.ID, f.class.ID)
	require.NoError(t, err)
	assert.Equal(t, f.student.ID, res.Checkin.UserID)
	assert.Equal(t, "check-in recorded for the student", res.Message)
}

func TestCreateGateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("class not found wins over user not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.asStudent(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, ErrClassNotFound)
	})

	t.Run("user not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.asAdmin(), uuid.New(), f.class.ID)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("inactive user rejected before permission", func(t *testing.T) {
		f := newFixture(t)
		f.student.IsActive = false
		// Principal without any permission on this target; inactive must win.
		other := &models.User{ID: uuid.New(), Role: models.RoleStudent, IsActive: true}
		f.store.users[other.ID] = other
		_, err := f.svc.Create(ctx, Principal{ID: other.ID, Role: models.RoleStudent}, f.student.ID, f.class.ID)
		assert.ErrorIs(t, err, ErrUserInactive)
	})

	t.Run("student cannot check in another user", func(t *testing.T) {
		f := newFixture(t)
		other := &models.User{ID: uuid.New(), Role: models.RoleStudent, IsActive: true}
		f.store.users[other.ID] = other
		_, err := f.svc.Create(ctx, f.asStudent(), other.ID, f.class.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("instructor cannot act on a class they do not teach", func(t *testing.T) {
		f := newFixture(t)
		foreign := &models.Class{
			ID:           uuid.New(),
			StartTime:    f.now.Add(time.Hour),
			EndTime:      f.now.Add(2 * time.Hour),
			InstructorID: uuid.New(),
			Capacity:     10,
		}
		f.store.classes[foreign.ID] = foreign
		_, err := f.svc.Create(ctx, f.asInstructor(), f.student.ID, foreign.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("forbidden wins over started for unauthorized principals", func(t *testing.T) {
		f := newFixture(t)
		f.class.StartTime = f.now.Add(-time.Hour)
		other := &models.User{ID: uuid.New(), Role: models.RoleStudent, IsActive: true}
		f.store.users[other.ID] = other
		_, err := f.svc.Create(ctx, f.asStudent(), other.ID, f.class.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestCreateClassAlreadyStarted(t *testing.T) {
	ctx := context.Background()

	t.Run("in progress rejected", func(t *testing.T) {
		f := newFixture(t)
		f.class.StartTime = f.now.Add(-time.Minute)
		_, err := f.svc.Create(ctx, f.asStudent(), uuid.Nil, f.class.ID)
		assert.ErrorIs(t, err, ErrClassAlreadyStarted)
	})

	t.Run("exactly at start rejected", func(t *testing.T) {
		f := newFixture(t)
		f.class.StartTime = f.now
		_, err := f.svc.Create(ctx, f.asStudent(), uuid.Nil, f.class.ID)
		assert.ErrorIs(t, err, ErrClassAlreadyStarted)
	})

	t.Run("finished rejected even for admin", func(t *testing.T) {
		f := newFixture(t)
		f.class.StartTime = f.now.Add(-2 * time.Hour)
		f.class.EndTime = f.now.Add(-time.Hour)
		_, err := f.svc.Create(ctx, f.asAdmin(), f.student.ID, f.class.ID)
		assert.ErrorIs(t, err, ErrClassAlreadyStarted)
	})
}

func TestCreateDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.asStudent(), uuid.Nil, f.class.ID)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.asStudent(), uuid.Nil, f.class.ID)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	assert.Equal(t, 1, f.store.increments[f.student.ID])
}

func TestCreateUniqueViolationRace(t *testing.T) {
	// A concurrent insert that slips past the duplicate read surfaces as the
	// same conflict error the read path reports.
	f := newFixture(t)
	f.store.insertErr = ErrAlreadyCheckedIn

	_, err := f.svc.Create(context.Background(), f.asStudent(), uuid.Nil, f.class.ID)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	assert.Zero(t, f.store.increments[f.student.ID])
}

func TestCreateCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.Equal(t, 2, f.class.Capacity)

	// Fill both seats.
	for i := 0; i < 2; i++ {
		u := &models.User{ID: uuid.New(), Role: models.RoleStudent, IsActive: true}
		f.store.users[u.ID] = u
		_, err := f.svc.Create(ctx, Principal{ID: u.ID, Role: models.RoleStudent}, uuid.Nil, f.class.ID)
		require.NoError(t, err)
	}

	_, err := f.svc.Create(ctx, f.asStudent(), uuid.Nil, f.class.ID)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Zero(t, f.store.increments[f.student.ID])
}

func TestConcurrentCreatesRespectCapacity(t *testing.T) {
	// N racing check-ins against a class with fewer seats: the serialized tx
	// bodies make every transaction observe the committed count, so exactly
	// capacity seats fill and the rest get the capacity error.
	f := newFixture(t)
	ctx := context.Background()
	require.Equal(t, 2, f.class.Capacity)

	const racers = 8
	principals := make([]Principal, racers)
	for i := range principals {
		u := &models.User{ID: uuid.New(), Role: models.RoleStudent, IsActive: true}
		f.store.users[u.ID] = u
		principals[i] = Principal{ID: u.ID, Role: models.RoleStudent}
	}

	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i, p := range principals {
		wg.Add(1)
		go func(i int, p Principal) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(ctx, p, uuid.Nil, f.class.ID)
		}(i, p)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrCapacityExceeded)
		}
	}
	assert.Equal(t, f.class.Capacity, succeeded)

	active, err := f.store.CountActive(ctx, f.class.ID)
	require.NoError(t, err)
	assert.Equal(t, f.class.Capacity, active)
}

func TestCancelledSeatsFreeCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	filler := &models.User{ID: uuid.New(), Role: models.RoleStudent, IsActive: true}
	f.store.users[filler.ID] = filler
	fillerP := Principal{ID: filler.ID, Role: models.RoleStudent}

	_, err := f.svc.Create(ctx, fillerP, uuid.Nil, f.class.ID)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.asStudent(), uuid.Nil, f.class.ID)
	require.NoError(t, err)

	// Class is full; a cancellation releases the seat.
	_, err = f.svc.Cancel(ctx, fillerP, uuid.Nil, f.class.ID)
	require.NoError(t, err)

	late := &models.User{ID: uuid.New(), Role: models.RoleStudent, IsActive: true}
	f.store.users[late.ID] = late
	_, err = f.svc.Create(ctx, Principal{ID: late.ID, Role: models.RoleStudent}, uuid.Nil, f.class.ID)
	assert.NoError(t, err)
}

func TestReactivation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.asStudent(), uuid.Nil, f.class.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.asStudent(), uuid.Nil, f.class.ID)
	require.NoError(t, err)

	second, err := f.svc.Create(ctx, f.asStudent(), uuid.Nil, f.class.ID)
	require.NoError(t, err)
	assert.True(t, second.Reactivated)

	// Same row, and the belt counter moved exactly once across the cycle.
	assert.Equal(t, first.Checkin.ID, second.Checkin.ID)
	assert.Len(t, f.store.checkins, 1)
	assert.Equal(t, 1, f.store.increments[f.student.ID])
}

func TestInstructorCheckinSkipsBeltCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.asInstructor(), uuid.Nil, f.class.ID)
	require.NoError(t, err)
	assert.Zero(t, f.store.increments[f.instructor.ID])
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("self cancel", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.asStudent(), uuid.Nil, f.class.ID)
		require.NoError(t, err)

		res, err := f.svc.Cancel(ctx, f.asStudent(), uuid.Nil, f.class.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CheckinCancelled, res.Checkin.Status)
		assert.Nil(t, res.Checkin.CompletedAt)
		assert.Equal(t, "your check-in was cancelled", res.Message)
	})

	t.Run("class not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Cancel(ctx, f.asStudent(), uuid.Nil, uuid.New())
		assert.ErrorIs(t, err, ErrClassNotFound)
	})

	t.Run("no check-in to cancel", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Cancel(ctx, f.asStudent(), uuid.Nil, f.class.ID)
		assert.ErrorIs(t, err, ErrCheckinNotFound)
	})

	t.Run("already cancelled", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.asStudent(), uuid.Nil, f.class.ID)
		require.NoError(t, err)
		_, err = f.svc.Cancel(ctx, f.asStudent(), uuid.Nil, f.class.ID)
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, f.asStudent(), uuid.Nil, f.class.ID)
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
	})

	t.Run("already cancelled wins over forbidden", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.asStudent(), uuid.Nil, f.class.ID)
		require.NoError(t, err)
		_, err = f.svc.Cancel(ctx, f.asStudent(), uuid.Nil, f.class.ID)
		require.NoError(t, err)

		other := &models.User{ID: uuid.New(), Role: models.RoleStudent, IsActive: true}
		f.store.users[other.ID] = other
		_, err = f.svc.Cancel(ctx, Principal{ID: other.ID, Role: models.RoleStudent}, f.student.ID, f.class.ID)
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
	})

	t.Run("student cannot cancel another user's check-in", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.asStudent(), uuid.Nil, f.class.ID)
		require.NoError(t, err)

		other := &models.User{ID: uuid.New(), Role: models.RoleStudent, IsActive: true}
		f.store.users[other.ID] = other
		_, err = f.svc.Cancel(ctx, Principal{ID: other.ID, Role: models.RoleStudent}, f.student.ID, f.class.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("attendance locks at start even for admin", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.asStudent(), uuid.Nil, f.class.ID)
		require.NoError(t, err)

		f.class.StartTime = f.now.Add(-time.Minute)
		_, err = f.svc.Cancel(ctx, f.asAdmin(), f.student.ID, f.class.ID)
		assert.ErrorIs(t, err, ErrClassAlreadyStarted)

		// Row untouched by the failed attempt.
		ck, err := f.store.FindByUserAndClass(ctx, f.student.ID, f.class.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CheckinDone, ck.Status)
	})

	t.Run("admin cancels another user", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.asStudent(), uuid.Nil, f.class.ID)
		require.NoError(t, err)

		res, err := f.svc.Cancel(ctx, f.asAdmin(), f.student.ID, f.class.ID)
		require.NoError(t, err)
		assert.Equal(t, "the student's check-in was cancelled", res.Message)
	})
}
