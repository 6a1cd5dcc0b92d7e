package model

import (
	"net/url"
	"strconv"
)

// Pagination describes the page of a paginated listing.
type Pagination struct {
	Page       int `json:"page" yaml:"page"`
	Limit      int `json:"limit" yaml:"limit"`
	Total      int `json:"total" yaml:"total"`
	TotalPages int `json:"totalPages" yaml:"totalPages"`
}

// HasPrevious reports whether a previous page exists.
func (p Pagination) HasPrevious() bool {
	return p.Page > 1
}

// HasNext reports whether a following page exists.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// Page is a paginated listing.
type Page[T any] struct {
	Data       []T        `json:"data" yaml:"data"`
	Pagination Pagination `json:"pagination" yaml:"pagination"`
}

// SortOrder is the direction of a sorted listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// BookingFilters narrows a booking listing.
type BookingFilters struct {
	Page      int           `validate:"omitempty,min=1"`
	Limit     int           `validate:"omitempty,min=1,max=100"`
	SortBy    string        `validate:"omitempty"`
	SortOrder SortOrder     `validate:"omitempty,oneof=asc desc"`
	DateFrom  string        `validate:"omitempty"`
	DateTo    string        `validate:"omitempty"`
	Status    BookingStatus `validate:"omitempty,oneof=pending approved rejected cancelled"`
	RoomID    string        `validate:"omitempty"`
	Search    string        `validate:"omitempty"`
}

// Values encodes the non-empty filters as URL query parameters.
func (f BookingFilters) Values() url.Values {
	values := url.Values{}
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		values.Set("limit", strconv.Itoa(f.Limit))
	}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set("sortBy", f.SortBy)
	set("sortOrder", string(f.SortOrder))
	set("dateFrom", f.DateFrom)
	set("dateTo", f.DateTo)
	set("status", string(f.Status))
	set("roomId", f.RoomID)
	set("search", f.Search)
	return values
}

// Key returns a stable cache key for the filters.
func (f BookingFilters) Key() string {
	return f.Values().Encode()
}
