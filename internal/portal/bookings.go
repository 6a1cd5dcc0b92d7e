package portal

import (
	"context"
	"strings"

	"github.com/example/meeting-room-portal/internal/events"
	"github.com/example/meeting-room-portal/internal/forms"
	"github.com/example/meeting-room-portal/internal/model"
	"github.com/example/meeting-room-portal/internal/navigation"
	"github.com/example/meeting-room-portal/internal/query"
)

const (
	recentBookingsLimit = 5
	myBookingsLimit     = 10
)

// DashboardView is the user dashboard: the most recent bookings and how many
// of them await approval or are approved.
type DashboardView struct {
	User          model.User
	Recent        []model.Booking
	PendingCount  int
	ApprovedCount int
}

// Dashboard loads the user dashboard.
func (r *Runtime) Dashboard(ctx context.Context) (DashboardView, error) {
	if err := r.requireUser(); err != nil {
		return DashboardView{}, err
	}
	filters := model.BookingFilters{Page: 1, Limit: recentBookingsLimit}
	key := query.Key{Topic: events.All(events.Dashboard), Params: filters.Key()}
	page, err := query.Fetch(ctx, r.Cache, key, func(ctx context.Context) (model.Page[model.Booking], error) {
		return r.Bookings.Mine(ctx, filters)
	})
	if err != nil {
		return DashboardView{}, err
	}

	view := DashboardView{Recent: page.Data}
	if user := r.Manager.User(); user != nil {
		view.User = *user
	}
	for _, booking := range page.Data {
		switch booking.Status {
		case model.BookingPending:
			view.PendingCount++
		case model.BookingApproved:
			view.ApprovedCount++
		}
	}
	return view, nil
}

// MyBookings lists the signed in user's bookings. Filters are validated
// before any request is sent; an unset limit defaults to ten per page.
func (r *Runtime) MyBookings(ctx context.Context, filters model.BookingFilters) (model.Page[model.Booking], error) {
	if err := r.requireUser(); err != nil {
		return model.Page[model.Booking]{}, err
	}
	if filters.Page == 0 {
		filters.Page = 1
	}
	if filters.Limit == 0 {
		filters.Limit = myBookingsLimit
	}
	if err := r.Forms.Filters(filters); err != nil {
		return model.Page[model.Booking]{}, err
	}
	key := query.Key{Topic: events.All(events.MyBookings), Params: filters.Key()}
	return query.Fetch(ctx, r.Cache, key, func(ctx context.Context) (model.Page[model.Booking], error) {
		return r.Bookings.Mine(ctx, filters)
	})
}

// CancelBooking cancels a booking owned by the user.
func (r *Runtime) CancelBooking(ctx context.Context, id string) (model.Booking, error) {
	if err := r.requireUser(); err != nil {
		return model.Booking{}, err
	}
	return query.Mutate(ctx, r.Bus, func(ctx context.Context) (model.Booking, error) {
		return r.Bookings.Cancel(ctx, id)
	}, bookingTopics(id)...)
}

// BookingDetailView is a booking with the banner describing its status.
type BookingDetailView struct {
	Booking         model.Booking
	Notice          model.StatusNotice
	RejectionReason string
	CanCancel       bool
	CanEdit         bool
}

// BookingDetail loads a single booking.
func (r *Runtime) BookingDetail(ctx context.Context, id string) (BookingDetailView, error) {
	if err := r.requireUser(); err != nil {
		return BookingDetailView{}, err
	}
	booking, err := r.booking(ctx, id)
	if err != nil {
		return BookingDetailView{}, err
	}
	view := BookingDetailView{
		Booking:   booking,
		Notice:    booking.Notice(),
		CanCancel: booking.Cancellable(),
		CanEdit:   booking.Editable(),
	}
	if booking.ShowsRejectionReason() {
		view.RejectionReason = booking.RejectionReason
	}
	return view, nil
}

func (r *Runtime) booking(ctx context.Context, id string) (model.Booking, error) {
	key := query.Key{Topic: events.For(events.Booking, id)}
	return query.Fetch(ctx, r.Cache, key, func(ctx context.Context) (model.Booking, error) {
		return r.Bookings.Get(ctx, id)
	})
}

// RoomOptions lists the rooms offered by the booking forms.
func (r *Runtime) RoomOptions(ctx context.Context) ([]model.Room, error) {
	if err := r.requireUser(); err != nil {
		return nil, err
	}
	return r.rooms(ctx)
}

func (r *Runtime) rooms(ctx context.Context) ([]model.Room, error) {
	return query.Fetch(ctx, r.Cache, query.Key{Topic: events.All(events.Rooms)}, r.Rooms.List)
}

// CreateBooking validates and submits a new booking, then returns to the
// booking list.
func (r *Runtime) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (model.Booking, error) {
	if err := r.requireUser(); err != nil {
		return model.Booking{}, err
	}
	req.Description = strings.TrimSpace(req.Description)
	if err := r.Forms.CreateBooking(req); err != nil {
		return model.Booking{}, err
	}
	booking, err := query.Mutate(ctx, r.Bus, func(ctx context.Context) (model.Booking, error) {
		return r.Bookings.Create(ctx, req)
	}, bookingTopics("")...)
	if err != nil {
		return model.Booking{}, err
	}
	r.Navigator.Push(navigation.MyBookings)
	return booking, nil
}

// EditBookingView is the edit form of a booking together with the fields it
// accepts.
type EditBookingView struct {
	Booking model.Booking
	Policy  forms.EditPolicy
	Rooms   []model.Room
}

// EditBooking loads the edit form of a booking.
func (r *Runtime) EditBooking(ctx context.Context, id string) (EditBookingView, error) {
	if err := r.requireUser(); err != nil {
		return EditBookingView{}, err
	}
	booking, err := r.booking(ctx, id)
	if err != nil {
		return EditBookingView{}, err
	}
	rooms, err := r.rooms(ctx)
	if err != nil {
		return EditBookingView{}, err
	}
	return EditBookingView{Booking: booking, Policy: forms.EditPolicyFor(booking), Rooms: rooms}, nil
}

// UpdateBooking submits the edit form. Fields the edit policy disables are
// dropped before validation; a read only booking is refused with
// ErrReadOnly without contacting the server.
func (r *Runtime) UpdateBooking(ctx context.Context, id string, req model.UpdateBookingRequest) (model.Booking, error) {
	if err := r.requireUser(); err != nil {
		return model.Booking{}, err
	}
	current, err := r.booking(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	policy := forms.EditPolicyFor(current)
	if !policy.CanSubmit() {
		return model.Booking{}, ErrReadOnly
	}
	req = policy.Restrict(req)
	if err := r.Forms.UpdateBooking(req); err != nil {
		return model.Booking{}, err
	}

	booking, err := query.Mutate(ctx, r.Bus, func(ctx context.Context) (model.Booking, error) {
		return r.Bookings.Update(ctx, id, req)
	}, bookingTopics(id)...)
	if err != nil {
		return model.Booking{}, err
	}
	r.Navigator.Push(navigation.BookingDetail(id))
	return booking, nil
}
