package checkin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mataleao/backend/internal/classes"
	"github.com/mataleao/backend/internal/models"
)

// Store provides the persistence the check-in state machine needs. The
// non-transactional reads run fresh per operation; the mutating sequence runs
// inside InTx so the capacity count and the write commit as one unit.
type Store interface {
	// GetClass returns the class or nil when absent.
	GetClass(ctx context.Context, id uuid.UUID) (*models.Class, error)
	// GetUser returns the user or nil when absent.
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	// InTx runs fn inside a transaction, committing when fn returns nil and
	// rolling back otherwise.
	InTx(ctx context.Context, fn func(tx TxStore) error) error
}

// TxStore is the transaction-scoped view of the check-in table.
type TxStore interface {
	// LockClass reloads the class under a row lock, serializing concurrent
	// check-ins for the same class. Returns nil when absent.
	LockClass(ctx context.Context, classID uuid.UUID) (*models.Class, error)
	// FindByUserAndClass returns the single row for the pair, or nil.
	FindByUserAndClass(ctx context.Context, userID, classID uuid.UUID) (*models.Checkin, error)
	// CountActive counts rows with status done; only those consume capacity.
	CountActive(ctx context.Context, classID uuid.UUID) (int, error)
	// InsertDone creates a fresh done row. A unique-constraint violation on
	// (user, class) is reported as ErrAlreadyCheckedIn.
	InsertDone(ctx context.Context, userID, classID uuid.UUID, at time.Time) (*models.Checkin, error)
	// Reactivate transitions a cancelled row back to done.
	Reactivate(ctx context.Context, checkinID uuid.UUID, at time.Time) error
	// Cancel transitions a row to cancelled and clears its completion time.
	Cancel(ctx context.Context, checkinID uuid.UUID) error
	// IncrementCompletedClasses bumps a student's belt-progress counter.
	IncrementCompletedClasses(ctx context.Context, userID uuid.UUID) error
}

// Result is the outcome of a successful create or cancel.
type Result struct {
	Checkin     *models.Checkin `json:"checkin"`
	Reactivated bool            `json:"reactivated"`
	Self        bool            `json:"-"`
	Message     string          `json:"message"`
}

// Service orchestrates the check-in lifecycle: creation, reactivation and
// cancellation, gated by permissions, class phase and capacity.
type Service struct {
	store  Store
	loc    *time.Location
	logger *zap.Logger

	// now is swappable so tests can pin the clock at phase boundaries.
	now func() time.Time
}

// NewService creates a check-in service. loc is the academy timezone used for
// class phase evaluation.
func NewService(store Store, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, loc: loc, logger: logger, now: time.Now}
}

// Create records a check-in for the target user on a class, reactivating a
// previously cancelled row when one exists. A zero targetUserID means the
// principal acts on themselves.
func (s *Service) Create(ctx context.Context, p Principal, targetUserID, classID uuid.UUID) (*Result, error) {
	if targetUserID == uuid.Nil {
		targetUserID = p.ID
	}

	class, err := s.store.GetClass(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("load class: %w", err)
	}
	if class == nil {
		return nil, ErrClassNotFound
	}

	target, err := s.store.GetUser(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("load target user: %w", err)
	}
	if target == nil {
		return nil, ErrUserNotFound
	}
	if !target.IsActive {
		return nil, ErrUserInactive
	}

	if !Allowed(p, targetUserID, class) {
		return nil, ErrForbidden
	}

	if classes.Phase(class.StartTime, class.EndTime, s.now(), s.loc) != models.PhaseNotStarted {
		return nil, ErrClassAlreadyStarted
	}

	res := Result{Self: targetUserID == p.ID}
	err = s.store.InTx(ctx, func(tx TxStore) error {
		locked, err := tx.LockClass(ctx, classID)
		if err != nil {
			return fmt.Errorf("lock class: %w", err)
		}
		if locked == nil {
			return ErrClassNotFound
		}

		existing, err := tx.FindByUserAndClass(ctx, targetUserID, classID)
		if err != nil {
			return fmt.Errorf("find check-in: %w", err)
		}
		if existing != nil && existing.Status == models.CheckinDone {
			return ErrAlreadyCheckedIn
		}

		active, err := tx.CountActive(ctx, classID)
		if err != nil {
			return fmt.Errorf("count active check-ins: %w", err)
		}
		if active >= locked.Capacity {
			return ErrCapacityExceeded
		}

		at := s.now()
		if existing != nil {
			// Reactivation reuses the cancelled row. The belt counter was
			// already incremented on the original insert, so it stays put.
			if err := tx.Reactivate(ctx, existing.ID, at); err != nil {
				return fmt.Errorf("reactivate check-in: %w", err)
			}
			existing.Status = models.CheckinDone
			existing.CompletedAt = &at
			res.Checkin = existing
			res.Reactivated = true
			return nil
		}

		created, err := tx.InsertDone(ctx, targetUserID, classID, at)
		if err != nil {
			return err
		}
		if target.Role == models.RoleStudent {
			if err := tx.IncrementCompletedClasses(ctx, targetUserID); err != nil {
				return fmt.Errorf("increment completed classes: %w", err)
			}
		}
		res.Checkin = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Self {
		res.Message = "you are checked in to this class"
	} else {
		res.Message = "check-in recorded for the student"
	}
	s.logger.Info("check-in created",
		zap.String("class_id", classID.String()),
		zap.String("user_id", targetUserID.String()),
		zap.Bool("reactivated", res.Reactivated))
	return &res, nil
}

// Cancel transitions a check-in to cancelled. Attendance locks once the class
// starts, same as creation. The belt-progress counter is historical and is
// never rolled back here.
func (s *Service) Cancel(ctx context.Context, p Principal, targetUserID, classID uuid.UUID) (*Result, error) {
	if targetUserID == uuid.Nil {
		targetUserID = p.ID
	}

	class, err := s.store.GetClass(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("load class: %w", err)
	}
	if class == nil {
		return nil, ErrClassNotFound
	}

	res := Result{Self: targetUserID == p.ID}
	err = s.store.InTx(ctx, func(tx TxStore) error {
		existing, err := tx.FindByUserAndClass(ctx, targetUserID, classID)
		if err != nil {
			return fmt.Errorf("find check-in: %w", err)
		}
		if existing == nil {
			return ErrCheckinNotFound
		}
		if existing.Status == models.CheckinCancelled {
			return ErrAlreadyCancelled
		}

		if !Allowed(p, targetUserID, class) {
			return ErrForbidden
		}

		if classes.Phase(class.StartTime, class.EndTime, s.now(), s.loc) != models.PhaseNotStarted {
			return ErrClassAlreadyStarted
		}

		if err := tx.Cancel(ctx, existing.ID); err != nil {
			return fmt.Errorf("cancel check-in: %w", err)
		}
		existing.Status = models.CheckinCancelled
		existing.CompletedAt = nil
		res.Checkin = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Self {
		res.Message = "your check-in was cancelled"
	} else {
		res.Message = "the student's check-in was cancelled"
	}
	s.logger.Info("check-in cancelled",
		zap.String("class_id", classID.String()),
		zap.String("user_id", targetUserID.String()))
	return &res, nil
}
