package service

import (
	"context"

	"github.com/example/meeting-room-portal/internal/model"
)

// BookingService wraps the booking endpoints.
type BookingService struct {
	client Requester
}

// NewBookingService constructs a BookingService.
func NewBookingService(client Requester) *BookingService {
	return &BookingService{client: client}
}

// List returns every booking visible to the caller.
func (s *BookingService) List(ctx context.Context, filters model.BookingFilters) (model.Page[model.Booking], error) {
	var out model.Page[model.Booking]
	err := s.client.Get(ctx, "/bookings", filters.Values(), &out)
	return out, err
}

// Mine returns the bookings of the current user.
func (s *BookingService) Mine(ctx context.Context, filters model.BookingFilters) (model.Page[model.Booking], error) {
	var out model.Page[model.Booking]
	err := s.client.Get(ctx, "/bookings/my", filters.Values(), &out)
	return out, err
}

// Get returns one booking.
func (s *BookingService) Get(ctx context.Context, id string) (model.Booking, error) {
	var out model.Booking
	err := s.client.Get(ctx, "/bookings/"+escape(id), nil, &out)
	return out, err
}

// Create submits a new booking.
func (s *BookingService) Create(ctx context.Context, req model.CreateBookingRequest) (model.Booking, error) {
	var out model.Booking
	err := s.client.Post(ctx, "/bookings", req, &out)
	return out, err
}

// Update changes the fields of a booking.
func (s *BookingService) Update(ctx context.Context, id string, req model.UpdateBookingRequest) (model.Booking, error) {
	var out model.Booking
	err := s.client.Put(ctx, "/bookings/"+escape(id), req, &out)
	return out, err
}

// Cancel cancels a booking owned by the caller.
func (s *BookingService) Cancel(ctx context.Context, id string) (model.Booking, error) {
	var out model.Booking
	err := s.client.Patch(ctx, "/bookings/"+escape(id)+"/cancel", nil, &out)
	return out, err
}

// Approve approves a pending booking.
func (s *BookingService) Approve(ctx context.Context, id string) (model.Booking, error) {
	var out model.Booking
	err := s.client.Patch(ctx, "/bookings/"+escape(id)+"/approve", nil, &out)
	return out, err
}

// Reject rejects a pending booking with a reason.
func (s *BookingService) Reject(ctx context.Context, id, reason string) (model.Booking, error) {
	var out model.Booking
	err := s.client.Patch(ctx, "/bookings/"+escape(id)+"/reject", model.RejectBookingRequest{Reason: reason}, &out)
	return out, err
}

// Pending returns the bookings awaiting review.
func (s *BookingService) Pending(ctx context.Context) (model.Page[model.Booking], error) {
	var out model.Page[model.Booking]
	err := s.client.Get(ctx, "/bookings/pending", nil, &out)
	return out, err
}
