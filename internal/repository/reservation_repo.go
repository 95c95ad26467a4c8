package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cleanbook/internal/domain"
)

// ReservationRepository is the reservation ledger. Every mutating method runs
// in exactly one transaction; the slot check and the write share it.
type ReservationRepository struct {
	db     *gorm.DB
	now    func() time.Time
	tracer trace.Tracer
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{
		db:     db,
		now:    time.Now,
		tracer: otel.Tracer("cleanbook/ledger"),
	}
}

// WithClock replaces the clock used for created/updated/cancelled stamps.
func (r *ReservationRepository) WithClock(now func() time.Time) *ReservationRepository {
	r.now = now
	return r
}

type reservationModel struct {
	ID            int64      `gorm:"column:id;primaryKey"`
	UserID        int64      `gorm:"column:user_id"`
	ServiceID     int64      `gorm:"column:service_id"`
	SlotDate      string     `gorm:"column:slot_date"`
	SlotTime      string     `gorm:"column:slot_time"`
	Amount        float64    `gorm:"column:amount"`
	PaymentMethod string     `gorm:"column:payment_method"`
	PaymentStatus string     `gorm:"column:payment_status"`
	Address       string     `gorm:"column:address"`
	Phone         string     `gorm:"column:phone"`
	Instructions  string     `gorm:"column:instructions"`
	Status        string     `gorm:"column:status"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
	CancelledAt   *time.Time `gorm:"column:cancelled_at"`
	CancelledBy   *int64     `gorm:"column:cancelled_by"`
	Rating        *int       `gorm:"column:rating"`
	ReviewComment string     `gorm:"column:review_comment"`
	ReviewedAt    *time.Time `gorm:"column:reviewed_at"`
}

func (reservationModel) TableName() string { return "reservations" }

func toDomainReservation(m reservationModel) *domain.Reservation {
	return &domain.Reservation{
		ID:            m.ID,
		UserID:        m.UserID,
		ServiceID:     m.ServiceID,
		Date:          m.SlotDate,
		Time:          m.SlotTime,
		Amount:        m.Amount,
		PaymentMethod: m.PaymentMethod,
		PaymentStatus: domain.PaymentStatus(m.PaymentStatus),
		Address:       m.Address,
		Phone:         m.Phone,
		Instructions:  m.Instructions,
		Status:        domain.ReservationStatus(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		CancelledAt:   m.CancelledAt,
		CancelledBy:   m.CancelledBy,
		Rating:        m.Rating,
		ReviewComment: m.ReviewComment,
		ReviewedAt:    m.ReviewedAt,
	}
}

func toReservationModel(r *domain.Reservation) reservationModel {
	return reservationModel{
		ID:            r.ID,
		UserID:        r.UserID,
		ServiceID:     r.ServiceID,
		SlotDate:      r.Date,
		SlotTime:      r.Time,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		PaymentStatus: string(r.PaymentStatus),
		Address:       r.Address,
		Phone:         r.Phone,
		Instructions:  r.Instructions,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		CancelledAt:   r.CancelledAt,
		CancelledBy:   r.CancelledBy,
		Rating:        r.Rating,
		ReviewComment: r.ReviewComment,
		ReviewedAt:    r.ReviewedAt,
	}
}

type slotKey struct {
	serviceID int64
	date      string
	time      string
	callerID  int64
	excludeID int64
}

// Reserve inserts res unless a blocking reservation already holds its slot.
// On success res is replaced with the persisted record.
func (r *ReservationRepository) Reserve(ctx context.Context, res *domain.Reservation) (err error) {
	ctx, span := r.tracer.Start(ctx, "ledger.Reserve", trace.WithAttributes(
		attribute.Int64("service.id", res.ServiceID),
		attribute.String("slot.date", res.Date),
		attribute.String("slot.time", res.Time),
	))
	defer func() { endSpan(span, err) }()

	if res.Status == "" {
		res.Status = domain.StatusPending
	}
	if res.Status != domain.StatusPending && res.Status != domain.StatusConfirmed {
		return domain.Validationf("initial status must be pending or confirmed, got %q", res.Status)
	}
	if res.PaymentStatus == "" {
		res.PaymentStatus = domain.PaymentUnpaid
	}

	key := slotKey{serviceID: res.ServiceID, date: res.Date, time: res.Time, callerID: res.UserID}
	now := r.now().UTC()

	var created reservationModel
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findSlotHolder(tx, key, true); err != nil {
			return err
		}

		m := toReservationModel(res)
		m.ID = 0
		m.CreatedAt = now
		m.UpdatedAt = now
		m.CancelledAt = nil
		m.CancelledBy = nil
		m.Rating = nil
		m.ReviewedAt = nil
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		created = m
		return nil
	})
	if err != nil {
		return r.translateError(ctx, err, &key)
	}

	*res = *toDomainReservation(created)
	return nil
}

// Release cancels a reservation on behalf of its owner or an administrator.
func (r *ReservationRepository) Release(ctx context.Context, id int64, actor domain.Principal) (*domain.Reservation, error) {
	return r.mutate(ctx, "ledger.Release", id, nil, func(_ *gorm.DB, m *reservationModel, now time.Time) (map[string]any, error) {
		if !actor.IsAdmin() && m.UserID != actor.ID {
			return nil, domain.ErrForbidden
		}
		cur := domain.ReservationStatus(m.Status)
		if !cur.CanTransitionTo(domain.StatusCancelled) {
			return nil, domain.InvalidTransition(cur, domain.StatusCancelled)
		}
		return map[string]any{
			"status":       string(domain.StatusCancelled),
			"cancelled_at": now,
			"cancelled_by": actor.ID,
			"updated_at":   now,
		}, nil
	})
}

// TransitionStatus applies a status change requested by actor. Cancellation
// follows the Release rules; every other target requires an administrator.
// Expiry belongs to the sweeper and is rejected here.
func (r *ReservationRepository) TransitionStatus(ctx context.Context, id int64, to domain.ReservationStatus, actor domain.Principal) (*domain.Reservation, error) {
	if !to.Valid() {
		return nil, domain.Validationf("unknown status %q", to)
	}
	if to == domain.StatusCancelled {
		return r.Release(ctx, id, actor)
	}

	return r.mutate(ctx, "ledger.TransitionStatus", id, nil, func(_ *gorm.DB, m *reservationModel, now time.Time) (map[string]any, error) {
		if !actor.IsAdmin() {
			return nil, domain.ErrForbidden
		}
		cur := domain.ReservationStatus(m.Status)
		if to == domain.StatusExpired || !cur.CanTransitionTo(to) {
			return nil, domain.InvalidTransition(cur, to)
		}
		return map[string]any{
			"status":     string(to),
			"updated_at": now,
		}, nil
	})
}

// Reschedule moves a pending reservation to another slot. The new slot is
// checked inside the same transaction as the update.
func (r *ReservationRepository) Reschedule(ctx context.Context, id int64, date, hhmm string, actor domain.Principal) (*domain.Reservation, error) {
	key := slotKey{date: date, time: hhmm, callerID: actor.ID, excludeID: id}

	return r.mutate(ctx, "ledger.Reschedule", id, &key, func(tx *gorm.DB, m *reservationModel, now time.Time) (map[string]any, error) {
		if m.UserID != actor.ID {
			return nil, domain.ErrForbidden
		}
		cur := domain.ReservationStatus(m.Status)
		if cur != domain.StatusPending {
			return nil, domain.InvalidTransition(cur, domain.StatusPending)
		}

		key.serviceID = m.ServiceID
		if err := findSlotHolder(tx, key, true); err != nil {
			return nil, err
		}
		return map[string]any{
			"slot_date":  date,
			"slot_time":  hhmm,
			"status":     string(domain.StatusPending),
			"updated_at": now,
		}, nil
	})
}

// AttachReview stores the owner's rating on a completed reservation, once.
func (r *ReservationRepository) AttachReview(ctx context.Context, id int64, owner domain.Principal, rating int, comment string) (*domain.Reservation, error) {
	if rating < 1 || rating > 5 {
		return nil, domain.Validationf("rating must be between 1 and 5")
	}

	return r.mutate(ctx, "ledger.AttachReview", id, nil, func(_ *gorm.DB, m *reservationModel, now time.Time) (map[string]any, error) {
		if m.UserID != owner.ID {
			return nil, domain.ErrForbidden
		}
		if domain.ReservationStatus(m.Status) != domain.StatusCompleted {
			return nil, domain.Validationf("reservation is not completed")
		}
		if m.Rating != nil {
			return nil, domain.ErrAlreadyReviewed
		}
		return map[string]any{
			"rating":         rating,
			"review_comment": comment,
			"reviewed_at":    now,
			"updated_at":     now,
		}, nil
	})
}

// UpdatePaymentStatus stores the provider's payment status verbatim. It never
// touches the scheduling status.
func (r *ReservationRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Reservation, error) {
	tx := r.db.WithContext(ctx).
		Model(&reservationModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payment_status": string(status),
			"updated_at":     r.now().UTC(),
		})
	if tx.Error != nil {
		return nil, domain.StorageError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	var m reservationModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.StorageError(err)
	}
	return toDomainReservation(m), nil
}

// BlockingForDay returns every reservation occupying a slot of the service on date.
func (r *ReservationRepository) BlockingForDay(ctx context.Context, serviceID int64, date string) ([]domain.Reservation, error) {
	var rows []reservationModel
	err := r.db.WithContext(ctx).
		Where("service_id = ? AND slot_date = ?", serviceID, date).
		Where("status NOT IN ?", domain.NonBlockingStatuses()).
		Order("slot_time").
		Find(&rows).Error
	if err != nil {
		return nil, domain.StorageError(err)
	}
	return toDomainList(rows), nil
}

func (r *ReservationRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Reservation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var rows []reservationModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, domain.StorageError(err)
	}
	return toDomainList(rows), nil
}

type ReservationFilter struct {
	ServiceID int64
	UserID    int64
	Status    string
	DateFrom  string
	DateTo    string
	Page      int
	PerPage   int
}

func (r *ReservationRepository) List(ctx context.Context, filter ReservationFilter) ([]domain.Reservation, int64, error) {
	query := r.db.WithContext(ctx).Model(&reservationModel{})

	if filter.ServiceID > 0 {
		query = query.Where("service_id = ?", filter.ServiceID)
	}
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" && filter.Status != "all" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != "" {
		query = query.Where("slot_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("slot_date <= ?", filter.DateTo)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, domain.StorageError(err)
	}

	if filter.PerPage <= 0 || filter.PerPage > 100 {
		filter.PerPage = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	var rows []reservationModel
	err := query.
		Order("slot_date DESC").
		Order("slot_time DESC").
		Limit(filter.PerPage).
		Offset((filter.Page - 1) * filter.PerPage).
		Find(&rows).Error
	if err != nil {
		return nil, 0, domain.StorageError(err)
	}
	return toDomainList(rows), total, nil
}

// PendingDueBy returns pending reservations scheduled on or before date.
func (r *ReservationRepository) PendingDueBy(ctx context.Context, date string) ([]domain.Reservation, error) {
	var rows []reservationModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND slot_date <= ?", string(domain.StatusPending), date).
		Order("slot_date").
		Order("slot_time").
		Find(&rows).Error
	if err != nil {
		return nil, domain.StorageError(err)
	}
	return toDomainList(rows), nil
}

// Expire moves a single reservation from pending to expired. It reports
// false when the reservation is no longer pending.
func (r *ReservationRepository) Expire(ctx context.Context, id int64, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&reservationModel{}).
		Where("id = ? AND status = ?", id, string(domain.StatusPending)).
		Updates(map[string]any{
			"status":     string(domain.StatusExpired),
			"updated_at": at.UTC(),
		})
	if tx.Error != nil {
		return false, domain.StorageError(tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

type mutation func(tx *gorm.DB, m *reservationModel, now time.Time) (map[string]any, error)

// mutate loads the reservation under a row lock, lets apply decide the update
// and writes it guarded by the status that was read.
func (r *ReservationRepository) mutate(ctx context.Context, op string, id int64, key *slotKey, apply mutation) (out *domain.Reservation, err error) {
	ctx, span := r.tracer.Start(ctx, op, trace.WithAttributes(attribute.Int64("reservation.id", id)))
	defer func() { endSpan(span, err) }()

	now := r.now().UTC()

	var updated reservationModel
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m reservationModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		prev := m.Status
		updates, err := apply(tx, &m, now)
		if err != nil {
			return err
		}

		res := tx.Model(&reservationModel{}).
			Where("id = ? AND status = ?", m.ID, prev).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			next, _ := updates["status"].(string)
			return domain.InvalidTransition(domain.ReservationStatus(prev), domain.ReservationStatus(next))
		}

		return tx.First(&updated, id).Error
	})
	if err != nil {
		return nil, r.translateError(ctx, err, key)
	}
	return toDomainReservation(updated), nil
}

// findSlotHolder returns a *domain.ConflictError when a blocking reservation
// other than key.excludeID holds the slot.
func findSlotHolder(db *gorm.DB, key slotKey, lock bool) error {
	q := db
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	q = q.Where("service_id = ? AND slot_date = ? AND slot_time = ?", key.serviceID, key.date, key.time).
		Where("status NOT IN ?", domain.NonBlockingStatuses())
	if key.excludeID > 0 {
		q = q.Where("id <> ?", key.excludeID)
	}

	var holders []reservationModel
	if err := q.Order("id").Limit(1).Find(&holders).Error; err != nil {
		return err
	}
	if len(holders) == 0 {
		return nil
	}
	holder := holders[0]
	return &domain.ConflictError{
		ReservationID: holder.ID,
		SameOwner:     key.callerID != 0 && holder.UserID == key.callerID,
	}
}

// translateError maps a failed transaction onto the domain taxonomy. A unique
// index violation means a competing transaction committed the slot first;
// the winner is re-read so the caller learns its id.
func (r *ReservationRepository) translateError(ctx context.Context, err error, key *slotKey) error {
	if isDomainError(err) {
		return err
	}
	if key != nil && isUniqueViolation(err) {
		if herr := findSlotHolder(r.db.WithContext(ctx), *key, false); herr != nil {
			if _, ok := domain.IsConflict(herr); ok {
				return herr
			}
			return domain.StorageError(herr)
		}
		return &domain.ConflictError{}
	}
	return domain.StorageError(err)
}

func isDomainError(err error) bool {
	if _, ok := domain.IsConflict(err); ok {
		return true
	}
	for _, target := range []error{
		domain.ErrValidation,
		domain.ErrForbidden,
		domain.ErrNotFound,
		domain.ErrInvalidTransition,
		domain.ErrAlreadyReviewed,
		domain.ErrStorage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key value")
}

func toDomainList(rows []reservationModel) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainReservation(m))
	}
	return out
}

func endSpan(span trace.Span, err error) {
	if err != nil && errors.Is(err, domain.ErrStorage) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
