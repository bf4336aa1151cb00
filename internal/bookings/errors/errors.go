package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrSlotTaken is returned when a write collides with the unique
	// (date, time, table) index.
	ErrSlotTaken = errors.New("table already booked for that date/time")

	// ErrDocumentRejected is returned when the collection validator refuses
	// a write.
	ErrDocumentRejected = errors.New("booking rejected by collection validator")
)
