package testfixtures

import (
	"net/http/httptest"
	"testing"

	"github.com/example/meeting-room-portal/internal/mockapi"
	"github.com/example/meeting-room-portal/internal/model"
)

// Password is shared by every seeded account.
const Password = "secret123"

// MockAPI is a running mock booking API seeded with two accounts and two rooms.
type MockAPI struct {
	URL    string
	Server *mockapi.Server
	Admin  model.User
	User   model.User
	Rooms  []model.Room
	IDs    *Sequence
}

// StartMockAPI serves a seeded mock API over httptest until the test ends.
func StartMockAPI(t testing.TB) *MockAPI {
	t.Helper()

	clock := NewClock(ReferenceTime())
	ids := NewSequence("id")
	server := mockapi.New(mockapi.Config{
		Secret:         "fixture-secret",
		Now:            clock.NowFunc(),
		NewID:          ids.Next,
		PasswordParams: mockapi.FastPasswordParams,
	})

	fixture := &MockAPI{Server: server, IDs: ids}
	var err error
	if fixture.Admin, err = server.CreateUser("Ada Admin", "admin@example.com", Password, model.RoleAdmin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if fixture.User, err = server.CreateUser("Uma User", "user@example.com", Password, model.RoleUser); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	for _, req := range []model.CreateRoomRequest{
		{Name: "Blue Room", Capacity: 8, Location: "Floor 1"},
		{Name: "Green Room", Capacity: 4, Location: "Floor 2"},
	} {
		room, err := server.CreateRoom(req)
		if err != nil {
			t.Fatalf("seed room %s: %v", req.Name, err)
		}
		fixture.Rooms = append(fixture.Rooms, room)
	}

	httpServer := httptest.NewServer(server)
	t.Cleanup(httpServer.Close)
	fixture.URL = httpServer.URL
	return fixture
}

// Token returns a bearer token for user without going through login.
func (m *MockAPI) Token(t testing.TB, user model.User) string {
	t.Helper()
	token, err := m.Server.IssueToken(user.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// Booking seeds a pending booking owned by user in the first room.
func (m *MockAPI) Booking(t testing.TB, user model.User, date, start, end string) model.Booking {
	t.Helper()
	booking, err := m.Server.CreateBooking(user.ID, model.CreateBookingRequest{
		RoomID:      m.Rooms[0].ID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		Description: "Seeded booking for tests",
	})
	if err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return booking
}
