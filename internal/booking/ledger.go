// Package booking is the reservation ledger: one meal per student per day.
package booking

import (
	"context"
	"errors"
	"time"

	"mess-backend/internal/apperror"
	"mess-backend/internal/database"
	"mess-backend/internal/models"
	"mess-backend/internal/observability"
	"mess-backend/internal/window"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemFinder resolves a menu item offered on a given day.
type ItemFinder interface {
	Find(ctx context.Context, itemID uint, date models.Date) (*models.MenuItem, error)
}

type Ledger struct {
	db     *gorm.DB
	items  ItemFinder
	policy window.Policy
	log    zerolog.Logger
}

func NewLedger(db *gorm.DB, items ItemFinder, policy window.Policy, log zerolog.Logger) *Ledger {
	return &Ledger{
		db:     db,
		items:  items,
		policy: policy,
		log:    log.With().Str("component", "booking").Logger(),
	}
}

func (l *Ledger) Policy() window.Policy { return l.policy }

// Book reserves itemID for studentID on date. Checks run in a fixed order:
// item availability, existing booking, booking window. A unique violation
// on insert means a concurrent booking won and is reported exactly like the
// pre-check.
func (l *Ledger) Book(ctx context.Context, studentID uint, date models.Date, itemID uint, now time.Time) (*models.Reservation, error) {
	res, err := l.book(ctx, studentID, date, itemID, now)
	observability.RecordLedgerOp("book", outcome(err))
	return res, err
}

func (l *Ledger) book(ctx context.Context, studentID uint, date models.Date, itemID uint, now time.Time) (*models.Reservation, error) {
	if studentID == 0 {
		return nil, apperror.Validation("student identity is required")
	}
	if date.IsZero() || itemID == 0 {
		return nil, apperror.Validation("Date and item ID are required")
	}

	item, err := l.items.Find(ctx, itemID, date)
	if err != nil {
		return nil, err
	}

	db := l.db.WithContext(ctx)

	var held int64
	if err := db.Model(&models.Reservation{}).
		Where("student_id = ? AND booking_for_date = ?", studentID, date).
		Count(&held).Error; err != nil {
		return nil, l.storageErr("check existing reservation", err)
	}
	if held > 0 {
		return nil, errAlreadyBooked()
	}

	if err := l.policy.CheckBooking(now, date); err != nil {
		return nil, err
	}

	res := models.Reservation{
		StudentID:      studentID,
		MenuItemID:     item.ID,
		BookingForDate: date,
		CreatedAt:      now,
	}
	if err := db.Omit(clause.Associations).Create(&res).Error; err != nil {
		if database.IsUniqueViolation(err) {
			l.log.Debug().Uint("student_id", studentID).Stringer("date", date).Msg("lost booking race")
			return nil, errAlreadyBooked()
		}
		return nil, l.storageErr("insert reservation", err)
	}
	res.MenuItem = *item

	l.log.Info().
		Uint("reservation_id", res.ID).
		Uint("student_id", studentID).
		Uint("item_id", item.ID).
		Stringer("date", date).
		Msg("reservation booked")
	return &res, nil
}

// Cancel deletes the student's reservation while the cancellation window is
// open. Missing and foreign reservations are indistinguishable to the caller.
// It returns the deleted reservation.
func (l *Ledger) Cancel(ctx context.Context, studentID, reservationID uint, now time.Time) (*models.Reservation, error) {
	res, err := l.cancel(ctx, studentID, reservationID, now)
	observability.RecordLedgerOp("cancel", outcome(err))
	return res, err
}

func (l *Ledger) cancel(ctx context.Context, studentID, reservationID uint, now time.Time) (*models.Reservation, error) {
	if studentID == 0 {
		return nil, apperror.Validation("student identity is required")
	}
	if reservationID == 0 {
		return nil, apperror.Validation("Order ID is required")
	}

	db := l.db.WithContext(ctx)

	var res models.Reservation
	err := db.Where("id = ? AND student_id = ?", reservationID, studentID).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errReservationNotFound()
	}
	if err != nil {
		return nil, l.storageErr("find reservation", err)
	}

	if err := l.policy.CheckCancel(now, res.BookingForDate); err != nil {
		return nil, err
	}

	result := db.Where("id = ? AND student_id = ?", reservationID, studentID).Delete(&models.Reservation{})
	if result.Error != nil {
		return nil, l.storageErr("delete reservation", result.Error)
	}
	// a concurrent cancel deleted it first
	if result.RowsAffected == 0 {
		return nil, errReservationNotFound()
	}

	l.log.Info().
		Uint("reservation_id", res.ID).
		Uint("student_id", studentID).
		Stringer("date", res.BookingForDate).
		Msg("reservation cancelled")
	return &res, nil
}

// ListMine returns the student's full history, latest booking date first.
func (l *Ledger) ListMine(ctx context.Context, studentID uint) ([]models.Reservation, error) {
	if studentID == 0 {
		return nil, apperror.Validation("student identity is required")
	}

	out := make([]models.Reservation, 0)
	if err := l.db.WithContext(ctx).
		Preload("MenuItem").
		Where("student_id = ?", studentID).
		Order("booking_for_date DESC, id DESC").
		Find(&out).Error; err != nil {
		return nil, l.storageErr("list reservations", err)
	}
	return out, nil
}

// ListCancelable is the part of ListMine whose cancellation window is still
// open at now.
func (l *Ledger) ListCancelable(ctx context.Context, studentID uint, now time.Time) ([]models.Reservation, error) {
	all, err := l.ListMine(ctx, studentID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Reservation, 0, len(all))
	for _, r := range all {
		if l.policy.IsCancelOpen(now, r.BookingForDate) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *Ledger) storageErr(op string, err error) error {
	l.log.Error().Err(err).Str("op", op).Msg("ledger storage failure")
	return apperror.Storage(op, err)
}

func errAlreadyBooked() error {
	return apperror.Conflict("You already have a booking for this date")
}

func errReservationNotFound() error {
	return apperror.NotFound("Order not found or you don't have permission to cancel it")
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apperror.KindOf(err).String()
}
