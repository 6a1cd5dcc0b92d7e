package mockapi

import (
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/example/meeting-room-portal/internal/model"
)

const maxPhotoBytes = 5 << 20

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".svg": true}

func (s *Server) bindValid(c echo.Context, target any) error {
	if err := c.Bind(target); err != nil {
		return badRequest("Invalid request body")
	}
	return c.Validate(target)
}

// Auth.

func (s *Server) login(c echo.Context) error {
	var req model.LoginRequest
	if err := s.bindValid(c, &req); err != nil {
		return err
	}
	acc, found := s.store.accountByEmail(req.Email)
	if !found || VerifyPassword(acc.hash, req.Password) != nil {
		return unauthorized("Invalid email or password")
	}
	token, err := s.tokens.Issue(acc.user)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, model.AuthResponse{User: acc.user, Token: token}, "Login successful")
}

func (s *Server) register(c echo.Context) error {
	var req model.RegisterRequest
	if err := s.bindValid(c, &req); err != nil {
		return err
	}
	user, err := s.CreateUser(req.Name, req.Email, req.Password, model.RoleUser)
	if err != nil {
		return err
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, model.AuthResponse{User: user, Token: token}, "Registration successful")
}

func (s *Server) profile(c echo.Context) error {
	user, found := s.store.user(principalFrom(c).userID)
	if !found {
		return notFound("User not found")
	}
	return respond(c, http.StatusOK, user, "")
}

func (s *Server) logout(c echo.Context) error {
	return respond(c, http.StatusOK, map[string]string{"message": "Logged out"}, "Logged out")
}

// Bookings.

func (s *Server) filters(c echo.Context) (model.BookingFilters, error) {
	filters := model.BookingFilters{
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: model.SortOrder(c.QueryParam("sortOrder")),
		DateFrom:  c.QueryParam("dateFrom"),
		DateTo:    c.QueryParam("dateTo"),
		Status:    model.BookingStatus(c.QueryParam("status")),
		RoomID:    c.QueryParam("roomId"),
		Search:    c.QueryParam("search"),
	}
	for name, target := range map[string]*int{"page": &filters.Page, "limit": &filters.Limit} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return model.BookingFilters{}, badRequest("Query parameter " + name + " must be a number")
		}
		*target = value
	}
	if err := s.validator.Filters(filters); err != nil {
		return model.BookingFilters{}, err
	}
	return filters, nil
}

func (s *Server) listBookings(c echo.Context) error {
	filters, err := s.filters(c)
	if err != nil {
		return err
	}
	p := principalFrom(c)
	page := s.store.listBookings(filters, func(b model.Booking) bool {
		return p.isAdmin() || b.UserID == p.userID
	})
	return respond(c, http.StatusOK, page, "")
}

func (s *Server) myBookings(c echo.Context) error {
	filters, err := s.filters(c)
	if err != nil {
		return err
	}
	p := principalFrom(c)
	page := s.store.listBookings(filters, func(b model.Booking) bool {
		return b.UserID == p.userID
	})
	return respond(c, http.StatusOK, page, "")
}

func (s *Server) pendingBookings(c echo.Context) error {
	filters, err := s.filters(c)
	if err != nil {
		return err
	}
	filters.Status = model.BookingPending
	if filters.SortBy == "" {
		filters.SortBy, filters.SortOrder = "date", model.SortAsc
	}
	if filters.Limit == 0 {
		filters.Limit = 100
	}
	return respond(c, http.StatusOK, s.store.listBookings(filters, nil), "")
}

func (s *Server) getBooking(c echo.Context) error {
	booking, err := s.store.booking(principalFrom(c), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, booking, "")
}

func (s *Server) createBooking(c echo.Context) error {
	var req model.CreateBookingRequest
	if err := s.bindValid(c, &req); err != nil {
		return err
	}
	booking, err := s.store.createBooking(principalFrom(c), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, booking, "Booking created")
}

func (s *Server) updateBooking(c echo.Context) error {
	var req model.UpdateBookingRequest
	if err := s.bindValid(c, &req); err != nil {
		return err
	}
	booking, err := s.store.updateBooking(principalFrom(c), c.Param("id"), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, booking, "Booking updated")
}

func (s *Server) cancelBooking(c echo.Context) error {
	booking, err := s.store.cancelBooking(principalFrom(c), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, booking, "Booking cancelled")
}

func (s *Server) approveBooking(c echo.Context) error {
	booking, err := s.store.approveBooking(c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, booking, "Booking approved")
}

func (s *Server) rejectBooking(c echo.Context) error {
	var req model.RejectBookingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request body")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return badRequest("Rejection reason is required")
	}
	booking, err := s.store.rejectBooking(c.Param("id"), strings.TrimSpace(req.Reason))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, booking, "Booking rejected")
}

// Rooms.

func (s *Server) listRooms(c echo.Context) error {
	return respond(c, http.StatusOK, s.store.listRooms(), "")
}

func (s *Server) getRoom(c echo.Context) error {
	room, err := s.store.room(c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, room, "")
}

func (s *Server) createRoom(c echo.Context) error {
	var req model.CreateRoomRequest
	if err := s.bindValid(c, &req); err != nil {
		return err
	}
	return respond(c, http.StatusCreated, s.store.createRoom(req), "Room created")
}

func (s *Server) updateRoom(c echo.Context) error {
	var req model.UpdateRoomRequest
	if err := s.bindValid(c, &req); err != nil {
		return err
	}
	room, err := s.store.updateRoom(c.Param("id"), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, room, "Room updated")
}

func (s *Server) deleteRoom(c echo.Context) error {
	if err := s.store.deleteRoom(c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]string{"message": "Room deleted"}, "Room deleted")
}

func (s *Server) roomPhotos(c echo.Context) error {
	photos, err := s.store.roomPhotos(c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, photos, "")
}

func (s *Server) uploadPhotos(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest("Expected a multipart form")
	}
	headers := form.File["photos"]
	uploads := make([]upload, 0, len(headers))
	for _, header := range headers {
		ext := strings.ToLower(path.Ext(header.Filename))
		contentType := header.Header.Get("Content-Type")
		if !imageExtensions[ext] && !strings.HasPrefix(contentType, "image/") {
			return badRequest("Only image files can be uploaded")
		}
		if header.Size > maxPhotoBytes {
			return badRequest("Photos must be at most 5 MB")
		}
		file, err := header.Open()
		if err != nil {
			return err
		}
		data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes))
		file.Close()
		if err != nil {
			return err
		}
		uploads = append(uploads, upload{filename: header.Filename, contentType: contentType, data: data})
	}

	isCover, _ := strconv.ParseBool(c.FormValue("isCover"))
	room, err := s.store.addPhotos(c.Param("id"), uploads, isCover)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, room, "Photos uploaded")
}

func (s *Server) deletePhoto(c echo.Context) error {
	room, err := s.store.deletePhoto(c.Param("id"), c.Param("photoId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, room, "Photo deleted")
}

func (s *Server) setCover(c echo.Context) error {
	room, err := s.store.setCover(c.Param("photoId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, room, "Cover photo updated")
}

func (s *Server) serveUpload(c echo.Context) error {
	file, found := s.store.file(c.Request().URL.Path)
	if !found {
		return notFound("File not found")
	}
	contentType := file.contentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(file.data)
	}
	return c.Blob(http.StatusOK, contentType, file.data)
}
