package service

import (
	"context"
	"errors"

	bookingserrors "tablebook/internal/bookings/errors"
	"tablebook/internal/bookings/events"
	"tablebook/internal/bookings/export"
	"tablebook/internal/bookings/repository"
	"tablebook/internal/bookings/validator"
	"tablebook/pkg/config"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/metrics"
	"tablebook/pkg/model"
	"tablebook/pkg/sanitizer"
)

const (
	opCreate = "create"
	opList   = "list"
	opGet    = "get"
	opUpdate = "update"
	opDelete = "delete"
	opExport = "export"
)

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
	ExportCSV(ctx context.Context) ([]byte, error)
	ExportXLSX(ctx context.Context) ([]byte, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) (err error) {
	defer func() { observe(opCreate, err) }()

	if booking == nil {
		return apperrors.Validation("All fields are required", map[string]any{"fields": export.Columns})
	}

	s.sanitize(booking)
	if err := s.validate(booking); err != nil {
		return err
	}

	existing, err := s.repo.FindBySlot(ctx, booking.Date, booking.Time, booking.Table)
	switch {
	case err == nil && existing != nil:
		s.cfg.Log.Info("Booking rejected, slot already taken",
			"date", booking.Date,
			"time", booking.Time,
			"table", booking.Table,
			"existing_id", existing.ID,
		)
		return slotConflict(booking.Slot())
	case err != nil && !errors.Is(err, bookingserrors.ErrNotFound):
		s.cfg.Log.Error("Failed to check booking slot", "error", err)
		return apperrors.Internal("Failed to create booking", err)
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		if errors.Is(err, bookingserrors.ErrSlotTaken) {
			s.cfg.Log.Info("Booking lost slot race to a concurrent insert",
				"date", booking.Date,
				"time", booking.Time,
				"table", booking.Table,
			)
			return slotConflict(booking.Slot())
		}
		if errors.Is(err, bookingserrors.ErrDocumentRejected) {
			s.cfg.Log.Warn("Booking rejected by store validation", "error", err)
			return storeRejected()
		}
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"date", booking.Date,
		"time", booking.Time,
		"table", booking.Table,
	)
	s.publish(ctx, events.NewEvent(events.TypeBookingCreated, booking.ID, booking))
	return nil
}

func (s *bookingService) List(ctx context.Context, filter model.BookingFilter) (bookings []*model.Booking, err error) {
	defer func() { observe(opList, err) }()

	filter.Date = sanitizer.NormalizeDate(filter.Date)
	filter.Email = sanitizer.TrimAndNormalize(filter.Email)
	filter.Phone = sanitizer.TrimAndNormalize(filter.Phone)

	bookings, err = s.repo.Find(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	s.cfg.Log.Debug("Bookings listed",
		"date", filter.Date,
		"email", filter.Email,
		"phone", filter.Phone,
		"count", len(bookings),
	)
	return bookings, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (booking *model.Booking, err error) {
	defer func() { observe(opGet, err) }()

	return s.findExisting(ctx, id)
}

func (s *bookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (updated *model.Booking, err error) {
	defer func() { observe(opUpdate, err) }()

	existing, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if updates == nil || updates.IsEmpty() {
		return existing, nil
	}

	merged := updates.ApplyTo(existing)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if merged.Slot() != existing.Slot() {
		other, err := s.repo.FindBySlot(ctx, merged.Date, merged.Time, merged.Table)
		switch {
		case err == nil && other != nil && other.ID != existing.ID:
			return nil, slotConflict(merged.Slot())
		case err != nil && !errors.Is(err, bookingserrors.ErrNotFound):
			s.cfg.Log.Error("Failed to check booking slot", "id", id, "error", err)
			return nil, apperrors.Internal("Failed to update booking", err)
		}
	}

	updated, err = s.repo.UpdateByID(ctx, id, normalizedUpdate(updates, merged))
	if err != nil {
		switch {
		case errors.Is(err, bookingserrors.ErrNotFound), errors.Is(err, bookingserrors.ErrInvalidID):
			return nil, apperrors.NotFoundWithID("Booking", id)
		case errors.Is(err, bookingserrors.ErrSlotTaken):
			return nil, slotConflict(merged.Slot())
		case errors.Is(err, bookingserrors.ErrDocumentRejected):
			s.cfg.Log.Warn("Booking update rejected by store validation", "id", id, "error", err)
			return nil, storeRejected()
		}
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update booking", err)
	}

	s.cfg.Log.Info("Booking updated successfully", "id", id)
	s.publish(ctx, events.NewEvent(events.TypeBookingUpdated, id, updated))
	return updated, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) (err error) {
	defer func() { observe(opDelete, err) }()

	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to delete booking", "id", id, "error", err)
		return apperrors.Internal("Failed to delete booking", err)
	}
	if !deleted {
		return apperrors.NotFoundWithID("Booking", id)
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	s.publish(ctx, events.NewEvent(events.TypeBookingDeleted, id, nil))
	return nil
}

func (s *bookingService) ExportCSV(ctx context.Context) ([]byte, error) {
	return s.exportAll(ctx, "csv", export.CSV)
}

func (s *bookingService) ExportXLSX(ctx context.Context) ([]byte, error) {
	return s.exportAll(ctx, "xlsx", export.XLSX)
}

func (s *bookingService) exportAll(ctx context.Context, format string, render func([]*model.Booking) ([]byte, error)) (data []byte, err error) {
	defer func() { observe(opExport, err) }()

	bookings, err := s.repo.ExportAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for export", "format", format, "error", err)
		return nil, apperrors.Internal("Failed to export bookings", err)
	}

	data, err = render(bookings)
	if err != nil {
		s.cfg.Log.Error("Failed to render booking export", "format", format, "error", err)
		return nil, apperrors.Internal("Failed to export bookings", err)
	}

	s.cfg.Log.Info("Bookings exported", "format", format, "count", len(bookings))
	return data, nil
}

// --- Helpers ---

func (s *bookingService) findExisting(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to retrieve booking", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.FirstName = sanitizer.NormalizeName(b.FirstName)
	b.LastName = sanitizer.NormalizeName(b.LastName)
	b.Phone = sanitizer.NormalizePhone(b.Phone)
	b.Email = sanitizer.NormalizeEmail(b.Email)
	b.Date = sanitizer.NormalizeDate(b.Date)
	b.Time = sanitizer.NormalizeTime(b.Time)
}

func (s *bookingService) validate(booking *model.Booking) error {
	err := s.validator.Validate(booking)
	if err == nil {
		return nil
	}

	s.cfg.Log.Warn("Booking validation failed", "error", err)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("All fields are required", map[string]any{
			"fields": verrs.Fields(),
			"errors": verrs,
		})
	}
	return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
}

// publish never fails the caller: the booking is already persisted.
func (s *bookingService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"type", event.Type,
			"id", event.BookingID,
			"error", err,
		)
	}
}

// normalizedUpdate keeps the caller's field selection but takes the values
// from the sanitized merged record.
func normalizedUpdate(updates *model.BookingUpdate, merged *model.Booking) *model.BookingUpdate {
	out := &model.BookingUpdate{}
	if updates.FirstName != nil {
		out.FirstName = &merged.FirstName
	}
	if updates.LastName != nil {
		out.LastName = &merged.LastName
	}
	if updates.Phone != nil {
		out.Phone = &merged.Phone
	}
	if updates.Email != nil {
		out.Email = &merged.Email
	}
	if updates.Date != nil {
		out.Date = &merged.Date
	}
	if updates.Time != nil {
		out.Time = &merged.Time
	}
	if updates.Table != nil {
		out.Table = &merged.Table
	}
	return out
}

// slotConflict keeps the 400 status clients of the booking API rely on for
// double bookings.
func storeRejected() *apperrors.AppError {
	return apperrors.Validation("Booking does not satisfy the stored schema", nil)
}

func slotConflict(slot model.BookingSlot) *apperrors.AppError {
	return apperrors.Conflict("Table already booked for that date/time").
		WithDetails(map[string]any{
			"date":  slot.Date,
			"time":  slot.Time,
			"table": slot.Table,
		})
}

func observe(operation string, err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case apperrors.HasCode(err, apperrors.CodeValidation):
		outcome = metrics.OutcomeValidation
	case apperrors.HasCode(err, apperrors.CodeConflict):
		outcome = metrics.OutcomeConflict
	case apperrors.HasCode(err, apperrors.CodeNotFound):
		outcome = metrics.OutcomeNotFound
	default:
		outcome = metrics.OutcomeError
	}
	metrics.IncBookingOperation(operation, outcome)
}
