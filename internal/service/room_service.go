package service

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/example/meeting-room-portal/internal/api"
	"github.com/example/meeting-room-portal/internal/model"
)

// Photo is an image file to attach to a room gallery.
type Photo struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// RoomService wraps the room and room photo endpoints.
type RoomService struct {
	client      Requester
	fileBaseURL string
}

// NewRoomService constructs a RoomService. fileBaseURL resolves relative
// photo paths returned by the API.
func NewRoomService(client Requester, fileBaseURL string) *RoomService {
	return &RoomService{client: client, fileBaseURL: strings.TrimRight(fileBaseURL, "/")}
}

// List returns every room.
func (s *RoomService) List(ctx context.Context) ([]model.Room, error) {
	var out []model.Room
	err := s.client.Get(ctx, "/rooms", nil, &out)
	return out, err
}

// Get returns one room.
func (s *RoomService) Get(ctx context.Context, id string) (model.Room, error) {
	var out model.Room
	err := s.client.Get(ctx, "/rooms/"+escape(id), nil, &out)
	return out, err
}

// Create adds a room.
func (s *RoomService) Create(ctx context.Context, req model.CreateRoomRequest) (model.Room, error) {
	var out model.Room
	err := s.client.Post(ctx, "/rooms", req, &out)
	return out, err
}

// Update changes the fields of a room.
func (s *RoomService) Update(ctx context.Context, id string, req model.UpdateRoomRequest) (model.Room, error) {
	var out model.Room
	err := s.client.Put(ctx, "/rooms/"+escape(id), req, &out)
	return out, err
}

// Delete removes a room.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/rooms/"+escape(id), nil)
}

// UploadPhoto adds a photo to the room gallery, optionally as the cover.
func (s *RoomService) UploadPhoto(ctx context.Context, roomID string, photo Photo, isCover bool) (model.Room, error) {
	form := api.Form{
		Files: []api.File{{
			Field:       "photos",
			Filename:    photo.Filename,
			ContentType: photo.ContentType,
			Content:     photo.Content,
		}},
		Fields: []api.Field{{Name: "isCover", Value: strconv.FormatBool(isCover)}},
	}
	var out model.Room
	err := s.client.Upload(ctx, "/rooms/"+escape(roomID)+"/photos", form, &out)
	return out, err
}

// DeletePhoto removes a photo from the room gallery.
func (s *RoomService) DeletePhoto(ctx context.Context, roomID, photoID string) (model.Room, error) {
	var out model.Room
	err := s.client.Delete(ctx, "/rooms/"+escape(roomID)+"/photos/"+escape(photoID), &out)
	return out, err
}

// Photos returns the room gallery.
func (s *RoomService) Photos(ctx context.Context, roomID string) (model.RoomPhotos, error) {
	var out model.RoomPhotos
	err := s.client.Get(ctx, "/rooms/"+escape(roomID)+"/photos", nil, &out)
	return out, err
}

// SetCover marks a photo as the cover of its room.
func (s *RoomService) SetCover(ctx context.Context, photoID string) (model.Room, error) {
	var out model.Room
	err := s.client.Patch(ctx, "/rooms/photos/"+escape(photoID)+"/set-cover", nil, &out)
	return out, err
}

// AssetURL resolves a photo path against the file base URL. Absolute URLs
// and empty paths are returned unchanged.
func (s *RoomService) AssetURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if s.fileBaseURL == "" {
		return path
	}
	return s.fileBaseURL + "/" + strings.TrimLeft(path, "/")
}
