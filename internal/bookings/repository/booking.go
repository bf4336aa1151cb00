package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	bookingserrors "tablebook/internal/bookings/errors"
	"tablebook/pkg/config"
	"tablebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "bookings"

	SlotIndexName     = "slot_unique"
	DateTimeIndexName = "date_time"

	codeDocumentValidationFailure = 121
)

// Indexes are the indexes the bookings collection relies on. SlotIndexName
// is what makes a double booking impossible at the store level.
var Indexes = []mongo.IndexModel{
	{
		Keys: bson.D{
			{Key: "date", Value: 1},
			{Key: "time", Value: 1},
			{Key: "table", Value: 1},
		},
		Options: options.Index().SetName(SlotIndexName).SetUnique(true),
	},
	{
		Keys: bson.D{
			{Key: "date", Value: 1},
			{Key: "time", Value: 1},
		},
		Options: options.Index().SetName(DateTimeIndexName),
	},
}

type BookingRepository interface {
	Find(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	FindBySlot(ctx context.Context, date, time string, table int) (*model.Booking, error)
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	Create(ctx context.Context, booking *model.Booking) error
	UpdateByID(ctx context.Context, id string, update *model.BookingUpdate) (*model.Booking, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	ExportAll(ctx context.Context) ([]*model.Booking, error)
	EnsureIndexes(ctx context.Context) error
}

type mongoBookingRepository struct {
	collection   *mongo.Collection
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return newMongoBookingRepository(db.Collection(CollectionName), cfg.ReadTimeout, cfg.WriteTimeout)
}

func newMongoBookingRepository(collection *mongo.Collection, readTimeout, writeTimeout time.Duration) *mongoBookingRepository {
	return &mongoBookingRepository{
		collection:   collection,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// withTimeout bounds ctx by timeout, keeping an earlier caller deadline if
// there is one.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Find(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.readTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "time", Value: 1},
	})

	return r.findMany(ctx, buildSearchFilter(filter), opts)
}

func (r *mongoBookingRepository) FindBySlot(ctx context.Context, date, time string, table int) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.readTimeout)
	defer cancel()

	filter := bson.M{"date": date, "time": time, "table": table}

	var booking model.Booking
	err := r.collection.FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking by slot: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.readTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.writeTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.ID = ""
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrSlotTaken
		}
		if isDocumentValidationFailure(err) {
			return fmt.Errorf("%w: %w", bookingserrors.ErrDocumentRejected, err)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) UpdateByID(ctx context.Context, id string, update *model.BookingUpdate) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.writeTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": buildSetDocument(update)}, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, bookingserrors.ErrSlotTaken
		}
		if isDocumentValidationFailure(err) {
			return nil, fmt.Errorf("%w: %w", bookingserrors.ErrDocumentRejected, err)
		}
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.writeTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return false, fmt.Errorf("failed to delete booking: %w", err)
	}

	return result.DeletedCount > 0, nil
}

func (r *mongoBookingRepository) ExportAll(ctx context.Context) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.readTimeout)
	defer cancel()

	return r.findMany(ctx, bson.M{}, options.Find())
}

func (r *mongoBookingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx, r.writeTimeout)
	defer cancel()

	if _, err := r.collection.Indexes().CreateMany(ctx, Indexes); err != nil {
		return fmt.Errorf("failed to ensure booking indexes: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	if bookings == nil {
		bookings = []*model.Booking{}
	}

	return bookings, nil
}

func isDocumentValidationFailure(err error) bool {
	var serverErr mongo.ServerError
	return errors.As(err, &serverErr) && serverErr.HasErrorCode(codeDocumentValidationFailure)
}

func buildSearchFilter(filter model.BookingFilter) bson.M {
	query := bson.M{}

	if filter.Date != "" {
		query["date"] = filter.Date
	}
	if filter.Email != "" {
		query["email"] = containsInsensitive(filter.Email)
	}
	if filter.Phone != "" {
		query["phone"] = containsInsensitive(filter.Phone)
	}

	return query
}

// containsInsensitive matches value literally anywhere in the field, ignoring case.
func containsInsensitive(value string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(value), Options: "i"}
}

func buildSetDocument(update *model.BookingUpdate) bson.M {
	set := bson.M{"updatedAt": time.Now().UTC().Truncate(time.Millisecond)}

	if update.FirstName != nil {
		set["firstName"] = *update.FirstName
	}
	if update.LastName != nil {
		set["lastName"] = *update.LastName
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.Date != nil {
		set["date"] = *update.Date
	}
	if update.Time != nil {
		set["time"] = *update.Time
	}
	if update.Table != nil {
		set["table"] = *update.Table
	}

	return set
}
