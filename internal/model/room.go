package model

import "time"

// Room is a bookable meeting room.
type Room struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Capacity    int       `json:"capacity" yaml:"capacity"`
	Location    string    `json:"location" yaml:"location"`
	Facilities  []string  `json:"facilities" yaml:"facilities"`
	CoverPhoto  string    `json:"coverPhoto" yaml:"coverPhoto"`
	Photos      []string  `json:"photos" yaml:"photos"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// RoomPhoto is one entry of a room gallery. At most one photo per room is the cover.
type RoomPhoto struct {
	ID        string    `json:"id" yaml:"id"`
	RoomID    string    `json:"roomId" yaml:"roomId"`
	PhotoURL  string    `json:"photoUrl" yaml:"photoUrl"`
	IsCover   bool      `json:"isCover" yaml:"isCover"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// RoomPhotos is the gallery listing of a room.
type RoomPhotos struct {
	Photos     []RoomPhoto     `json:"photos" yaml:"photos"`
	Pagination PhotoPagination `json:"pagination" yaml:"pagination"`
}

// PhotoPagination describes the gallery page returned by the API.
type PhotoPagination struct {
	CurrentPage  int `json:"currentPage" yaml:"currentPage"`
	TotalPages   int `json:"totalPages" yaml:"totalPages"`
	TotalItems   int `json:"totalItems" yaml:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage" yaml:"itemsPerPage"`
}

// Cover returns the cover photo of the gallery, if any.
func (p RoomPhotos) Cover() (RoomPhoto, bool) {
	for _, photo := range p.Photos {
		if photo.IsCover {
			return photo, true
		}
	}
	return RoomPhoto{}, false
}

// CreateRoomRequest is the payload of a new room.
type CreateRoomRequest struct {
	Name     string `json:"name" validate:"required,min=3"`
	Capacity int    `json:"capacity" validate:"min=1"`
	Location string `json:"location" validate:"required"`
}

// UpdateRoomRequest is a partial room update; nil fields are left untouched.
type UpdateRoomRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=3"`
	Description *string  `json:"description,omitempty"`
	Capacity    *int     `json:"capacity,omitempty" validate:"omitempty,min=1"`
	Location    *string  `json:"location,omitempty" validate:"omitempty,min=1"`
	Facilities  []string `json:"facilities,omitempty"`
}
