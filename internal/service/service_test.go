package service

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/example/meeting-room-portal/internal/api"
	"github.com/example/meeting-room-portal/internal/model"
)

type call struct {
	method string
	path   string
	query  url.Values
	body   any
	form   api.Form
}

type recordingRequester struct {
	calls []call
	err   error
}

func (r *recordingRequester) record(c call) error {
	r.calls = append(r.calls, c)
	return r.err
}

func (r *recordingRequester) Get(_ context.Context, path string, query url.Values, _ any) error {
	return r.record(call{method: "GET", path: path, query: query})
}

func (r *recordingRequester) Post(_ context.Context, path string, body, _ any) error {
	return r.record(call{method: "POST", path: path, body: body})
}

func (r *recordingRequester) Put(_ context.Context, path string, body, _ any) error {
	return r.record(call{method: "PUT", path: path, body: body})
}

func (r *recordingRequester) Patch(_ context.Context, path string, body, _ any) error {
	return r.record(call{method: "PATCH", path: path, body: body})
}

func (r *recordingRequester) Delete(_ context.Context, path string, _ any) error {
	return r.record(call{method: "DELETE", path: path})
}

func (r *recordingRequester) Upload(_ context.Context, path string, form api.Form, _ any) error {
	return r.record(call{method: "UPLOAD", path: path, form: form})
}

func TestServicesShapeRequests(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	description := "Quarterly planning"

	tests := []struct {
		name   string
		invoke func(auth *AuthService, bookings *BookingService, rooms *RoomService) error
		method string
		path   string
	}{
		{"login", func(a *AuthService, _ *BookingService, _ *RoomService) error {
			_, err := a.Login(ctx, model.LoginRequest{Email: "a@b.c", Password: "pw"})
			return err
		}, "POST", "/auth/login"},
		{"register", func(a *AuthService, _ *BookingService, _ *RoomService) error {
			_, err := a.Register(ctx, model.RegisterRequest{Name: "A", Email: "a@b.c", Password: "secret"})
			return err
		}, "POST", "/auth/register"},
		{"profile", func(a *AuthService, _ *BookingService, _ *RoomService) error {
			_, err := a.Profile(ctx)
			return err
		}, "GET", "/auth/profile"},
		{"logout", func(a *AuthService, _ *BookingService, _ *RoomService) error {
			return a.Logout(ctx)
		}, "POST", "/auth/logout"},
		{"list bookings", func(_ *AuthService, b *BookingService, _ *RoomService) error {
			_, err := b.List(ctx, model.BookingFilters{})
			return err
		}, "GET", "/bookings"},
		{"my bookings", func(_ *AuthService, b *BookingService, _ *RoomService) error {
			_, err := b.Mine(ctx, model.BookingFilters{Page: 2})
			return err
		}, "GET", "/bookings/my"},
		{"get booking", func(_ *AuthService, b *BookingService, _ *RoomService) error {
			_, err := b.Get(ctx, "b1")
			return err
		}, "GET", "/bookings/b1"},
		{"create booking", func(_ *AuthService, b *BookingService, _ *RoomService) error {
			_, err := b.Create(ctx, model.CreateBookingRequest{RoomID: "r1"})
			return err
		}, "POST", "/bookings"},
		{"update booking", func(_ *AuthService, b *BookingService, _ *RoomService) error {
			_, err := b.Update(ctx, "b1", model.UpdateBookingRequest{Description: &description})
			return err
		}, "PUT", "/bookings/b1"},
		{"cancel booking", func(_ *AuthService, b *BookingService, _ *RoomService) error {
			_, err := b.Cancel(ctx, "b1")
			return err
		}, "PATCH", "/bookings/b1/cancel"},
		{"approve booking", func(_ *AuthService, b *BookingService, _ *RoomService) error {
			_, err := b.Approve(ctx, "b1")
			return err
		}, "PATCH", "/bookings/b1/approve"},
		{"reject booking", func(_ *AuthService, b *BookingService, _ *RoomService) error {
			_, err := b.Reject(ctx, "b1", "maintenance")
			return err
		}, "PATCH", "/bookings/b1/reject"},
		{"pending bookings", func(_ *AuthService, b *BookingService, _ *RoomService) error {
			_, err := b.Pending(ctx)
			return err
		}, "GET", "/bookings/pending"},
		{"list rooms", func(_ *AuthService, _ *BookingService, r *RoomService) error {
			_, err := r.List(ctx)
			return err
		}, "GET", "/rooms"},
		{"get room", func(_ *AuthService, _ *BookingService, r *RoomService) error {
			_, err := r.Get(ctx, "r1")
			return err
		}, "GET", "/rooms/r1"},
		{"create room", func(_ *AuthService, _ *BookingService, r *RoomService) error {
			_, err := r.Create(ctx, model.CreateRoomRequest{Name: "Orion"})
			return err
		}, "POST", "/rooms"},
		{"update room", func(_ *AuthService, _ *BookingService, r *RoomService) error {
			_, err := r.Update(ctx, "r1", model.UpdateRoomRequest{})
			return err
		}, "PUT", "/rooms/r1"},
		{"delete room", func(_ *AuthService, _ *BookingService, r *RoomService) error {
			return r.Delete(ctx, "r1")
		}, "DELETE", "/rooms/r1"},
		{"upload photo", func(_ *AuthService, _ *BookingService, r *RoomService) error {
			_, err := r.UploadPhoto(ctx, "r1", Photo{Filename: "a.png", Content: strings.NewReader("x")}, true)
			return err
		}, "UPLOAD", "/rooms/r1/photos"},
		{"delete photo", func(_ *AuthService, _ *BookingService, r *RoomService) error {
			_, err := r.DeletePhoto(ctx, "r1", "p1")
			return err
		}, "DELETE", "/rooms/r1/photos/p1"},
		{"room photos", func(_ *AuthService, _ *BookingService, r *RoomService) error {
			_, err := r.Photos(ctx, "r1")
			return err
		}, "GET", "/rooms/r1/photos"},
		{"set cover", func(_ *AuthService, _ *BookingService, r *RoomService) error {
			_, err := r.SetCover(ctx, "p1")
			return err
		}, "PATCH", "/rooms/photos/p1/set-cover"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			requester := &recordingRequester{}
			if err := tc.invoke(NewAuthService(requester), NewBookingService(requester), NewRoomService(requester, "")); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(requester.calls) != 1 {
				t.Fatalf("expected exactly one request, got %d", len(requester.calls))
			}
			got := requester.calls[0]
			if got.method != tc.method || got.path != tc.path {
				t.Fatalf("expected %s %s, got %s %s", tc.method, tc.path, got.method, got.path)
			}
		})
	}
}

func TestBookingServicePayloads(t *testing.T) {
	t.Parallel()

	requester := &recordingRequester{}
	bookings := NewBookingService(requester)
	ctx := context.Background()

	if _, err := bookings.Reject(ctx, "b 1", "maintenance"); err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}
	if got := requester.calls[0]; got.path != "/bookings/b%201/reject" {
		t.Fatalf("expected escaped id in path, got %q", got.path)
	} else if body, ok := got.body.(model.RejectBookingRequest); !ok || body.Reason != "maintenance" {
		t.Fatalf("unexpected reject body: %#v", got.body)
	}

	if _, err := bookings.Mine(ctx, model.BookingFilters{Status: model.BookingApproved, Limit: 5}); err != nil {
		t.Fatalf("Mine returned error: %v", err)
	}
	query := requester.calls[1].query
	if query.Get("status") != "approved" || query.Get("limit") != "5" {
		t.Fatalf("unexpected filters: %v", query)
	}
}

func TestRoomServiceUploadForm(t *testing.T) {
	t.Parallel()

	requester := &recordingRequester{}
	rooms := NewRoomService(requester, "")
	if _, err := rooms.UploadPhoto(context.Background(), "r1", Photo{Filename: "cover.jpg", ContentType: "image/jpeg", Content: strings.NewReader("jpeg")}, false); err != nil {
		t.Fatalf("UploadPhoto returned error: %v", err)
	}

	form := requester.calls[0].form
	if len(form.Files) != 1 || form.Files[0].Field != "photos" || form.Files[0].Filename != "cover.jpg" {
		t.Fatalf("unexpected files: %+v", form.Files)
	}
	data, _ := io.ReadAll(form.Files[0].Content)
	if string(data) != "jpeg" {
		t.Fatalf("unexpected file content %q", data)
	}
	if len(form.Fields) != 1 || form.Fields[0].Name != "isCover" || form.Fields[0].Value != "false" {
		t.Fatalf("unexpected fields: %+v", form.Fields)
	}
}

func TestServicesPassErrorsThrough(t *testing.T) {
	t.Parallel()

	want := &api.Error{Kind: api.KindRejected, Status: 409, Message: "Room already booked"}
	requester := &recordingRequester{err: want}

	_, err := NewBookingService(requester).Create(context.Background(), model.CreateBookingRequest{})
	if !errors.Is(err, want) {
		t.Fatalf("expected error to pass through unchanged, got %v", err)
	}
	if len(requester.calls) != 1 {
		t.Fatalf("expected no retries, got %d calls", len(requester.calls))
	}
}

func TestRoomServiceAssetURL(t *testing.T) {
	t.Parallel()

	rooms := NewRoomService(&recordingRequester{}, "https://files.example.com/")
	tests := map[string]string{
		"/uploads/rooms/a.png":          "https://files.example.com/uploads/rooms/a.png",
		"uploads/rooms/a.png":           "https://files.example.com/uploads/rooms/a.png",
		"https://cdn.example.com/a.png": "https://cdn.example.com/a.png",
		"":                              "",
	}
	for input, want := range tests {
		if got := rooms.AssetURL(input); got != want {
			t.Fatalf("AssetURL(%q) = %q, want %q", input, got, want)
		}
	}

	bare := NewRoomService(&recordingRequester{}, "")
	if got := bare.AssetURL("/uploads/a.png"); got != "/uploads/a.png" {
		t.Fatalf("expected path unchanged without base URL, got %q", got)
	}
}
