package portal

import (
	"context"
	"strings"
	"sync"

	"github.com/example/meeting-room-portal/internal/events"
	"github.com/example/meeting-room-portal/internal/model"
	"github.com/example/meeting-room-portal/internal/query"
	"github.com/example/meeting-room-portal/internal/service"
)

// AdminDashboardView summarises the work waiting for an administrator.
type AdminDashboardView struct {
	PendingCount int
	RoomCount    int
	Pending      []model.Booking
}

// AdminDashboard loads the admin dashboard.
func (r *Runtime) AdminDashboard(ctx context.Context) (AdminDashboardView, error) {
	if err := r.requireAdmin(); err != nil {
		return AdminDashboardView{}, err
	}
	pending, err := r.pending(ctx)
	if err != nil {
		return AdminDashboardView{}, err
	}
	rooms, err := r.rooms(ctx)
	if err != nil {
		return AdminDashboardView{}, err
	}

	view := AdminDashboardView{
		PendingCount: pending.Pagination.Total,
		RoomCount:    len(rooms),
		Pending:      pending.Data,
	}
	if view.PendingCount < len(pending.Data) {
		view.PendingCount = len(pending.Data)
	}
	if len(view.Pending) > recentBookingsLimit {
		view.Pending = view.Pending[:recentBookingsLimit]
	}
	return view, nil
}

// PendingBookings lists the bookings awaiting approval.
func (r *Runtime) PendingBookings(ctx context.Context) (model.Page[model.Booking], error) {
	if err := r.requireAdmin(); err != nil {
		return model.Page[model.Booking]{}, err
	}
	return r.pending(ctx)
}

func (r *Runtime) pending(ctx context.Context) (model.Page[model.Booking], error) {
	return query.Fetch(ctx, r.Cache, query.Key{Topic: events.All(events.PendingBookings)}, r.Bookings.Pending)
}

// ApproveBooking approves a pending booking.
func (r *Runtime) ApproveBooking(ctx context.Context, id string) (model.Booking, error) {
	if err := r.requireAdmin(); err != nil {
		return model.Booking{}, err
	}
	return query.Mutate(ctx, r.Bus, func(ctx context.Context) (model.Booking, error) {
		return r.Bookings.Approve(ctx, id)
	}, bookingTopics(id)...)
}

// RejectBooking rejects a pending booking. The reason is required.
func (r *Runtime) RejectBooking(ctx context.Context, id, reason string) (model.Booking, error) {
	if err := r.requireAdmin(); err != nil {
		return model.Booking{}, err
	}
	reason = strings.TrimSpace(reason)
	if err := r.Forms.Validate(model.RejectBookingRequest{Reason: reason}); err != nil {
		return model.Booking{}, err
	}
	return query.Mutate(ctx, r.Bus, func(ctx context.Context) (model.Booking, error) {
		return r.Bookings.Reject(ctx, id, reason)
	}, bookingTopics(id)...)
}

// AdminRooms lists every room for management.
func (r *Runtime) AdminRooms(ctx context.Context) ([]model.Room, error) {
	if err := r.requireAdmin(); err != nil {
		return nil, err
	}
	return r.rooms(ctx)
}

// RoomPhotos loads the gallery of a room.
func (r *Runtime) RoomPhotos(ctx context.Context, roomID string) (model.RoomPhotos, error) {
	if err := r.requireAdmin(); err != nil {
		return model.RoomPhotos{}, err
	}
	key := query.Key{Topic: events.For(events.RoomPhotos, roomID)}
	return query.Fetch(ctx, r.Cache, key, func(ctx context.Context) (model.RoomPhotos, error) {
		return r.Rooms.Photos(ctx, roomID)
	})
}

// CreateRoom validates and creates a room.
func (r *Runtime) CreateRoom(ctx context.Context, req model.CreateRoomRequest) (model.Room, error) {
	if err := r.requireAdmin(); err != nil {
		return model.Room{}, err
	}
	if err := r.Forms.CreateRoom(req); err != nil {
		return model.Room{}, err
	}
	return query.Mutate(ctx, r.Bus, func(ctx context.Context) (model.Room, error) {
		return r.Rooms.Create(ctx, req)
	}, roomTopics("")...)
}

// UpdateRoom validates and applies a partial room update.
func (r *Runtime) UpdateRoom(ctx context.Context, id string, req model.UpdateRoomRequest) (model.Room, error) {
	if err := r.requireAdmin(); err != nil {
		return model.Room{}, err
	}
	if err := r.Forms.UpdateRoom(req); err != nil {
		return model.Room{}, err
	}
	return query.Mutate(ctx, r.Bus, func(ctx context.Context) (model.Room, error) {
		return r.Rooms.Update(ctx, id, req)
	}, roomTopics(id)...)
}

// DeleteRoom removes a room.
func (r *Runtime) DeleteRoom(ctx context.Context, id string) error {
	if err := r.requireAdmin(); err != nil {
		return err
	}
	_, err := query.Mutate(ctx, r.Bus, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.Rooms.Delete(ctx, id)
	}, roomTopics(id)...)
	return err
}

// UploadResult is the outcome of one file of a photo upload.
type UploadResult struct {
	Filename string
	Room     model.Room
	Err      error
}

// UploadPhotos uploads every photo to the room concurrently. Each file
// succeeds or fails on its own; results are returned in input order and
// every success invalidates the room listing and gallery.
func (r *Runtime) UploadPhotos(ctx context.Context, roomID string, photos []service.Photo, isCover bool) ([]UploadResult, error) {
	if err := r.requireAdmin(); err != nil {
		return nil, err
	}

	results := make([]UploadResult, len(photos))
	var wg sync.WaitGroup
	for i, photo := range photos {
		wg.Add(1)
		go func(i int, photo service.Photo) {
			defer wg.Done()
			room, err := query.Mutate(ctx, r.Bus, func(ctx context.Context) (model.Room, error) {
				return r.Rooms.UploadPhoto(ctx, roomID, photo, isCover)
			}, roomTopics(roomID)...)
			results[i] = UploadResult{Filename: photo.Filename, Room: room, Err: err}
			if err != nil {
				r.log(ctx, "UploadPhotos").WarnContext(ctx, "photo upload failed", "room_id", roomID, "filename", photo.Filename, "error", err)
			}
		}(i, photo)
	}
	wg.Wait()
	return results, nil
}

// DeletePhoto removes a photo from a room gallery.
func (r *Runtime) DeletePhoto(ctx context.Context, roomID, photoID string) (model.Room, error) {
	if err := r.requireAdmin(); err != nil {
		return model.Room{}, err
	}
	return query.Mutate(ctx, r.Bus, func(ctx context.Context) (model.Room, error) {
		return r.Rooms.DeletePhoto(ctx, roomID, photoID)
	}, roomTopics(roomID)...)
}

// SetCoverPhoto marks a photo as its room's cover.
func (r *Runtime) SetCoverPhoto(ctx context.Context, photoID string) (model.Room, error) {
	if err := r.requireAdmin(); err != nil {
		return model.Room{}, err
	}
	return query.Mutate(ctx, r.Bus, func(ctx context.Context) (model.Room, error) {
		return r.Rooms.SetCover(ctx, photoID)
	}, roomTopics("")...)
}
