package mockapi

import (
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/meeting-room-portal/internal/model"
)

type account struct {
	user model.User
	hash string
}

type upload struct {
	filename    string
	contentType string
	data        []byte
}

type storedFile struct {
	contentType string
	data        []byte
}

type principal struct {
	userID string
	role   model.Role
}

func (p principal) isAdmin() bool {
	return p.role == model.RoleAdmin
}

// store is the in-memory state of the mock API. Every method takes the lock
// and returns copies.
type store struct {
	mu    sync.RWMutex
	now   func() time.Time
	newID func() string

	accounts     map[string]*account
	emails       map[string]string
	rooms        map[string]*model.Room
	roomOrder    []string
	photos       map[string]*model.RoomPhoto
	photoOrder   []string
	files        map[string]storedFile
	bookings     map[string]*model.Booking
	bookingOrder []string
}

func newStore(now func() time.Time, newID func() string) *store {
	return &store{
		now:      now,
		newID:    newID,
		accounts: make(map[string]*account),
		emails:   make(map[string]string),
		rooms:    make(map[string]*model.Room),
		photos:   make(map[string]*model.RoomPhoto),
		files:    make(map[string]storedFile),
		bookings: make(map[string]*model.Booking),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *store) createAccount(name, email, hash string, role model.Role) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(email)
	if _, exists := s.emails[key]; exists {
		return model.User{}, conflict("Email is already registered")
	}
	now := s.now()
	user := model.User{
		ID:        s.newID(),
		Email:     key,
		Name:      strings.TrimSpace(name),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[user.ID] = &account{user: user, hash: hash}
	s.emails[key] = user.ID
	return user, nil
}

func (s *store) accountByEmail(email string) (account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[normalizeEmail(email)]
	if !ok {
		return account{}, false
	}
	return *s.accounts[id], true
}

func (s *store) user(id string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return model.User{}, false
	}
	return acc.user, true
}

// Rooms.

func (s *store) listRooms() []model.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Room, 0, len(s.roomOrder))
	for _, id := range s.roomOrder {
		out = append(out, s.roomLocked(id))
	}
	return out
}

func (s *store) room(id string) (model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.rooms[id]; !ok {
		return model.Room{}, notFound("Room not found")
	}
	return s.roomLocked(id), nil
}

// roomLocked returns the room with its photo fields derived from the gallery.
func (s *store) roomLocked(id string) model.Room {
	room := *s.rooms[id]
	room.Facilities = append([]string(nil), room.Facilities...)
	room.Photos = []string{}
	room.CoverPhoto = ""
	for _, photoID := range s.photoOrder {
		photo := s.photos[photoID]
		if photo.RoomID != id {
			continue
		}
		room.Photos = append(room.Photos, photo.PhotoURL)
		if photo.IsCover {
			room.CoverPhoto = photo.PhotoURL
		}
	}
	if room.Facilities == nil {
		room.Facilities = []string{}
	}
	return room
}

func (s *store) createRoom(req model.CreateRoomRequest) model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	room := &model.Room{
		ID:        s.newID(),
		Name:      strings.TrimSpace(req.Name),
		Capacity:  req.Capacity,
		Location:  strings.TrimSpace(req.Location),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.rooms[room.ID] = room
	s.roomOrder = append(s.roomOrder, room.ID)
	return s.roomLocked(room.ID)
}

func (s *store) updateRoom(id string, req model.UpdateRoomRequest) (model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return model.Room{}, notFound("Room not found")
	}
	if req.Name != nil {
		room.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		room.Description = *req.Description
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.Location != nil {
		room.Location = strings.TrimSpace(*req.Location)
	}
	if req.Facilities != nil {
		room.Facilities = append([]string(nil), req.Facilities...)
	}
	room.UpdatedAt = s.now()
	return s.roomLocked(id), nil
}

func (s *store) deleteRoom(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return notFound("Room not found")
	}
	delete(s.rooms, id)
	s.roomOrder = without(s.roomOrder, id)
	for _, photoID := range append([]string(nil), s.photoOrder...) {
		if photo := s.photos[photoID]; photo.RoomID == id {
			s.removePhotoLocked(photoID)
		}
	}
	return nil
}

func (s *store) addPhotos(roomID string, uploads []upload, isCover bool) (model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return model.Room{}, notFound("Room not found")
	}
	if len(uploads) == 0 {
		return model.Room{}, badRequest("At least one photo is required")
	}

	hasCover := false
	for _, photo := range s.photos {
		if photo.RoomID == roomID && photo.IsCover {
			hasCover = true
		}
	}

	now := s.now()
	for i, file := range uploads {
		id := s.newID()
		url := "/uploads/rooms/" + roomID + "/" + id + strings.ToLower(path.Ext(file.filename))
		makeCover := i == 0 && (isCover || !hasCover)
		if makeCover {
			s.clearCoverLocked(roomID)
		}
		s.photos[id] = &model.RoomPhoto{ID: id, RoomID: roomID, PhotoURL: url, IsCover: makeCover, CreatedAt: now}
		s.photoOrder = append(s.photoOrder, id)
		s.files[url] = storedFile{contentType: file.contentType, data: file.data}
	}
	s.rooms[roomID].UpdatedAt = now
	return s.roomLocked(roomID), nil
}

func (s *store) deletePhoto(roomID, photoID string) (model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return model.Room{}, notFound("Room not found")
	}
	photo, ok := s.photos[photoID]
	if !ok || photo.RoomID != roomID {
		return model.Room{}, notFound("Photo not found")
	}
	wasCover := photo.IsCover
	s.removePhotoLocked(photoID)
	if wasCover {
		for _, id := range s.photoOrder {
			if s.photos[id].RoomID == roomID {
				s.photos[id].IsCover = true
				break
			}
		}
	}
	return s.roomLocked(roomID), nil
}

func (s *store) roomPhotos(roomID string) (model.RoomPhotos, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.rooms[roomID]; !ok {
		return model.RoomPhotos{}, notFound("Room not found")
	}
	photos := []model.RoomPhoto{}
	for _, id := range s.photoOrder {
		if photo := s.photos[id]; photo.RoomID == roomID {
			photos = append(photos, *photo)
		}
	}
	return model.RoomPhotos{
		Photos: photos,
		Pagination: model.PhotoPagination{
			CurrentPage:  1,
			TotalPages:   1,
			TotalItems:   len(photos),
			ItemsPerPage: len(photos),
		},
	}, nil
}

func (s *store) setCover(photoID string) (model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	photo, ok := s.photos[photoID]
	if !ok {
		return model.Room{}, notFound("Photo not found")
	}
	s.clearCoverLocked(photo.RoomID)
	photo.IsCover = true
	return s.roomLocked(photo.RoomID), nil
}

func (s *store) file(urlPath string) (storedFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	file, ok := s.files[urlPath]
	return file, ok
}

func (s *store) clearCoverLocked(roomID string) {
	for _, photo := range s.photos {
		if photo.RoomID == roomID {
			photo.IsCover = false
		}
	}
}

func (s *store) removePhotoLocked(photoID string) {
	if photo, ok := s.photos[photoID]; ok {
		delete(s.files, photo.PhotoURL)
	}
	delete(s.photos, photoID)
	s.photoOrder = without(s.photoOrder, photoID)
}

// Bookings.

func (s *store) listBookings(filters model.BookingFilters, match func(model.Booking) bool) model.Page[model.Booking] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	selected := make([]model.Booking, 0, len(s.bookingOrder))
	search := strings.ToLower(strings.TrimSpace(filters.Search))
	for _, id := range s.bookingOrder {
		booking := s.bookingLocked(id)
		if match != nil && !match(booking) {
			continue
		}
		if filters.Status != "" && booking.Status != filters.Status {
			continue
		}
		if filters.RoomID != "" && booking.RoomID != filters.RoomID {
			continue
		}
		if filters.DateFrom != "" && booking.Date < filters.DateFrom {
			continue
		}
		if filters.DateTo != "" && booking.Date > filters.DateTo {
			continue
		}
		if search != "" && !matchesSearch(booking, search) {
			continue
		}
		selected = append(selected, booking)
	}

	sortBookings(selected, filters.SortBy, filters.SortOrder)
	return paginate(selected, filters.Page, filters.Limit)
}

func matchesSearch(booking model.Booking, needle string) bool {
	haystack := []string{booking.Description, booking.RoomName()}
	if booking.User != nil {
		haystack = append(haystack, booking.User.Name, booking.User.Email)
	}
	for _, value := range haystack {
		if strings.Contains(strings.ToLower(value), needle) {
			return true
		}
	}
	return false
}

func sortBookings(bookings []model.Booking, sortBy string, order model.SortOrder) {
	less := func(a, b model.Booking) bool {
		switch sortBy {
		case "date", "startTime":
			if a.Date != b.Date {
				return a.Date < b.Date
			}
			return a.StartTime < b.StartTime
		case "status":
			return a.Status < b.Status
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	descending := order == model.SortDesc || (order == "" && (sortBy == "" || sortBy == "createdAt"))
	sort.SliceStable(bookings, func(i, j int) bool {
		if descending {
			return less(bookings[j], bookings[i])
		}
		return less(bookings[i], bookings[j])
	})
}

func paginate[T any](items []T, page, limit int) model.Page[T] {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	total := len(items)
	totalPages := (total + limit - 1) / limit
	// Pages past the end are empty; checking before multiplying keeps
	// (page-1)*limit from overflowing.
	start := total
	if page <= totalPages {
		start = (page - 1) * limit
	}
	end := start + limit
	if end > total {
		end = total
	}
	data := make([]T, end-start)
	copy(data, items[start:end])
	return model.Page[T]{
		Data:       data,
		Pagination: model.Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages},
	}
}

func (s *store) booking(p principal, id string) (model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, notFound("Booking not found")
	}
	if !p.isAdmin() && stored.UserID != p.userID {
		return model.Booking{}, forbidden("You do not have access to this booking")
	}
	return s.bookingLocked(id), nil
}

// bookingLocked returns the booking with its room and user embedded.
func (s *store) bookingLocked(id string) model.Booking {
	booking := *s.bookings[id]
	if _, ok := s.rooms[booking.RoomID]; ok {
		room := s.roomLocked(booking.RoomID)
		booking.Room = &room
	}
	if acc, ok := s.accounts[booking.UserID]; ok {
		user := acc.user
		booking.User = &user
	}
	return booking
}

func (s *store) createBooking(p principal, req model.CreateBookingRequest) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[req.RoomID]; !ok {
		return model.Booking{}, notFound("Room not found")
	}
	now := s.now()
	booking := &model.Booking{
		ID:          s.newID(),
		UserID:      p.userID,
		RoomID:      req.RoomID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
		Status:      model.BookingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.bookings[booking.ID] = booking
	s.bookingOrder = append(s.bookingOrder, booking.ID)
	return s.bookingLocked(booking.ID), nil
}

func (s *store) updateBooking(p principal, id string, req model.UpdateBookingRequest) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, notFound("Booking not found")
	}
	if stored.UserID != p.userID {
		return model.Booking{}, forbidden("Only the owner can edit this booking")
	}
	switch stored.Status {
	case model.BookingCancelled:
		return model.Booking{}, badRequest("Cancelled bookings cannot be modified")
	case model.BookingApproved:
		if changed(req.RoomID, stored.RoomID) || changed(req.Date, stored.Date) || changed(req.StartTime, stored.StartTime) || changed(req.EndTime, stored.EndTime) {
			return model.Booking{}, badRequest("Approved bookings can only update the description")
		}
	}

	next := *stored
	if req.RoomID != nil {
		if _, ok := s.rooms[*req.RoomID]; !ok {
			return model.Booking{}, notFound("Room not found")
		}
		next.RoomID = *req.RoomID
	}
	if req.Date != nil {
		next.Date = *req.Date
	}
	if req.StartTime != nil {
		next.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		next.EndTime = *req.EndTime
	}
	if req.Description != nil {
		next.Description = *req.Description
	}
	if !endsAfterStart(next.StartTime, next.EndTime) {
		return model.Booking{}, badRequest("End time must be after start time")
	}
	next.UpdatedAt = s.now()
	*stored = next
	return s.bookingLocked(id), nil
}

// endsAfterStart compares HH:MM clock values.
func endsAfterStart(start, end string) bool {
	startAt, errStart := time.Parse("15:04", start)
	endAt, errEnd := time.Parse("15:04", end)
	if errStart != nil || errEnd != nil {
		return end > start
	}
	return endAt.After(startAt)
}

func changed(value *string, current string) bool {
	return value != nil && *value != current
}

func (s *store) cancelBooking(p principal, id string) (model.Booking, error) {
	return s.transition(id, func(booking *model.Booking) error {
		if !p.isAdmin() && booking.UserID != p.userID {
			return forbidden("Only the owner can cancel this booking")
		}
		if !booking.Cancellable() {
			return badRequest("Only pending or approved bookings can be cancelled")
		}
		booking.Status = model.BookingCancelled
		return nil
	})
}

func (s *store) approveBooking(id string) (model.Booking, error) {
	return s.transition(id, func(booking *model.Booking) error {
		if booking.Status != model.BookingPending {
			return badRequest("Only pending bookings can be approved")
		}
		booking.Status = model.BookingApproved
		return nil
	})
}

func (s *store) rejectBooking(id, reason string) (model.Booking, error) {
	return s.transition(id, func(booking *model.Booking) error {
		if booking.Status != model.BookingPending {
			return badRequest("Only pending bookings can be rejected")
		}
		booking.Status = model.BookingRejected
		booking.RejectionReason = reason
		return nil
	})
}

// transition applies fn to a copy and stores it only when fn succeeds.
func (s *store) transition(id string, fn func(*model.Booking) error) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, notFound("Booking not found")
	}
	next := *stored
	if err := fn(&next); err != nil {
		return model.Booking{}, err
	}
	next.UpdatedAt = s.now()
	*stored = next
	return s.bookingLocked(id), nil
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
