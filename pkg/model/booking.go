package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Booking reserves one table for one party at a date and time. The
// (Date, Time, Table) triple is unique across the collection.
type Booking struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	FirstName string    `json:"firstName" bson:"firstName" validate:"required"`
	LastName  string    `json:"lastName" bson:"lastName" validate:"required"`
	Phone     string    `json:"phone" bson:"phone" validate:"required"`
	Email     string    `json:"email" bson:"email" validate:"required"`
	Date      string    `json:"date" bson:"date" validate:"required"`
	Time      string    `json:"time" bson:"time" validate:"required"`
	Table     int       `json:"table" bson:"table" validate:"required"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// TableNumber decodes a table given either as a JSON number or as a numeric
// string. An empty string decodes to zero, which fails the required check.
type TableNumber int

func (n *TableNumber) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || data[0] != '"' {
		var v int
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*n = TableNumber(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("table %q is not a number", s)
	}
	*n = TableNumber(v)
	return nil
}

func (b *Booking) UnmarshalJSON(data []byte) error {
	type plain Booking
	aux := struct {
		*plain
		Table *TableNumber `json:"table"`
	}{plain: (*plain)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Table != nil {
		b.Table = int(*aux.Table)
	}
	return nil
}

// BookingUpdate carries a partial update. Nil fields are left unchanged.
type BookingUpdate struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	Date      *string `json:"date,omitempty"`
	Time      *string `json:"time,omitempty"`
	Table     *int    `json:"table,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u *BookingUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Phone == nil && u.Email == nil &&
		u.Date == nil && u.Time == nil && u.Table == nil
}

// ApplyTo returns a copy of b with the update's fields applied.
func (u *BookingUpdate) ApplyTo(b *Booking) *Booking {
	merged := *b
	if u.FirstName != nil {
		merged.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		merged.LastName = *u.LastName
	}
	if u.Phone != nil {
		merged.Phone = *u.Phone
	}
	if u.Email != nil {
		merged.Email = *u.Email
	}
	if u.Date != nil {
		merged.Date = *u.Date
	}
	if u.Time != nil {
		merged.Time = *u.Time
	}
	if u.Table != nil {
		merged.Table = *u.Table
	}
	return &merged
}

func (u *BookingUpdate) UnmarshalJSON(data []byte) error {
	type plain BookingUpdate
	aux := struct {
		*plain
		Table *TableNumber `json:"table,omitempty"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Table != nil {
		table := int(*aux.Table)
		u.Table = &table
	}
	return nil
}

// BookingFilter narrows a listing. Empty fields do not filter.
type BookingFilter struct {
	Date  string
	Email string
	Phone string
}

// BookingSlot identifies the (date, time, table) triple a booking occupies.
type BookingSlot struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Table int    `json:"table"`
}

func (b *Booking) Slot() BookingSlot {
	return BookingSlot{Date: b.Date, Time: b.Time, Table: b.Table}
}
