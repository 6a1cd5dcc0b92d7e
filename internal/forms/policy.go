package forms

import "github.com/example/meeting-room-portal/internal/model"

// Booking form field names, matching the JSON keys of the booking payloads.
const (
	FieldRoomID      = "roomId"
	FieldDate        = "date"
	FieldStartTime   = "startTime"
	FieldEndTime     = "endTime"
	FieldDescription = "description"
)

// EditPolicy states which booking form fields accept input. It only mirrors
// the server lifecycle for display; the server still decides.
type EditPolicy struct {
	ReadOnly     bool
	TimeDisabled bool
	Notice       string
}

// EditPolicyFor derives the edit policy from the booking status. Approved
// bookings keep only the description editable; cancelled bookings are
// entirely read only.
func EditPolicyFor(booking model.Booking) EditPolicy {
	switch booking.Status {
	case model.BookingCancelled:
		return EditPolicy{
			ReadOnly:     true,
			TimeDisabled: true,
			Notice:       "This booking has been cancelled and cannot be modified.",
		}
	case model.BookingApproved:
		return EditPolicy{
			TimeDisabled: true,
			Notice:       "This booking has been approved. You can only update the description.",
		}
	}
	return EditPolicy{}
}

// Disabled reports whether field is rendered disabled.
func (p EditPolicy) Disabled(field string) bool {
	if p.ReadOnly {
		return true
	}
	switch field {
	case FieldRoomID, FieldDate, FieldStartTime, FieldEndTime:
		return p.TimeDisabled
	}
	return false
}

// CanSubmit reports whether the submit action is enabled.
func (p EditPolicy) CanSubmit() bool {
	return !p.ReadOnly
}

// Restrict returns req with every disabled field cleared so a submission
// never carries values the form did not accept.
func (p EditPolicy) Restrict(req model.UpdateBookingRequest) model.UpdateBookingRequest {
	if p.Disabled(FieldRoomID) {
		req.RoomID = nil
	}
	if p.Disabled(FieldDate) {
		req.Date = nil
	}
	if p.Disabled(FieldStartTime) {
		req.StartTime = nil
	}
	if p.Disabled(FieldEndTime) {
		req.EndTime = nil
	}
	if p.Disabled(FieldDescription) {
		req.Description = nil
	}
	return req
}
