package model

import "time"

// BookingStatus is the server-authoritative state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
)

// BookingStatuses lists every status in display order.
var BookingStatuses = []BookingStatus{BookingPending, BookingApproved, BookingRejected, BookingCancelled}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingApproved, BookingRejected, BookingCancelled:
		return true
	}
	return false
}

// Booking is a room reservation.
type Booking struct {
	ID              string        `json:"id" yaml:"id"`
	UserID          string        `json:"userId" yaml:"userId"`
	RoomID          string        `json:"roomId" yaml:"roomId"`
	Room            *Room         `json:"room,omitempty" yaml:"room,omitempty"`
	User            *User         `json:"user,omitempty" yaml:"user,omitempty"`
	Date            string        `json:"date" yaml:"date"`
	StartTime       string        `json:"startTime" yaml:"startTime"`
	EndTime         string        `json:"endTime" yaml:"endTime"`
	Description     string        `json:"description" yaml:"description"`
	Status          BookingStatus `json:"status" yaml:"status"`
	RejectionReason string        `json:"rejectionReason,omitempty" yaml:"rejectionReason,omitempty"`
	CreatedAt       time.Time     `json:"createdAt" yaml:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt" yaml:"updatedAt"`
}

// ShowsRejectionReason reports whether the rejection reason is displayed.
func (b Booking) ShowsRejectionReason() bool {
	return b.Status == BookingRejected && b.RejectionReason != ""
}

// Cancellable reports whether the owner is offered the cancel action.
func (b Booking) Cancellable() bool {
	return b.Status == BookingPending || b.Status == BookingApproved
}

// Editable reports whether the edit form accepts submissions.
func (b Booking) Editable() bool {
	return b.Status != BookingCancelled
}

// RoomName returns the embedded room name or the raw room id.
func (b Booking) RoomName() string {
	if b.Room != nil && b.Room.Name != "" {
		return b.Room.Name
	}
	return b.RoomID
}

// StatusNotice is the banner shown on the booking detail page.
type StatusNotice struct {
	Title   string
	Message string
}

// Notice returns the banner describing the booking status.
func (b Booking) Notice() StatusNotice {
	switch b.Status {
	case BookingApproved:
		return StatusNotice{Title: "Booking approved", Message: "Your booking has been approved. The room is reserved for you."}
	case BookingRejected:
		return StatusNotice{Title: "Booking rejected", Message: "Your booking was rejected by an administrator."}
	case BookingCancelled:
		return StatusNotice{Title: "Booking cancelled", Message: "This booking has been cancelled and can no longer be changed."}
	case BookingPending:
		return StatusNotice{Title: "Awaiting approval", Message: "Your booking is waiting for an administrator to review it."}
	}
	return StatusNotice{}
}

// CreateBookingRequest is the payload of a new booking.
type CreateBookingRequest struct {
	RoomID      string `json:"roomId" validate:"required"`
	Date        string `json:"date" validate:"required"`
	StartTime   string `json:"startTime" validate:"required,clock"`
	EndTime     string `json:"endTime" validate:"required,clock"`
	Description string `json:"description" validate:"required,min=10"`
}

// UpdateBookingRequest is a partial booking update; nil fields are left untouched.
type UpdateBookingRequest struct {
	RoomID      *string `json:"roomId,omitempty" validate:"omitempty,min=1"`
	Date        *string `json:"date,omitempty" validate:"omitempty,min=1"`
	StartTime   *string `json:"startTime,omitempty" validate:"omitempty,clock"`
	EndTime     *string `json:"endTime,omitempty" validate:"omitempty,clock"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=10"`
}

// RejectBookingRequest carries the reason for a rejection.
type RejectBookingRequest struct {
	Reason string `json:"reason" validate:"required"`
}
