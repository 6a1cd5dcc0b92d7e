package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/example/meeting-room-portal/internal/model"
	"github.com/example/meeting-room-portal/internal/navigation"
	"github.com/example/meeting-room-portal/internal/portal"
	"github.com/example/meeting-room-portal/internal/service"
)

func (a *app) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&a.format, "output", "o", formatTable, "output format: table, json or yaml")
	return fs
}

func (a *app) root() *command {
	return &command{
		Name:    "roombook",
		Summary: "Book meeting rooms and manage bookings from the terminal.",
		Subcommands: []*command{
			a.loginCommand(),
			a.registerCommand(),
			a.logoutCommand(),
			a.whoamiCommand(),
			a.dashboardCommand(),
			a.bookingsCommand(),
			a.roomsCommand(),
			a.adminCommand(),
		},
	}
}

func (a *app) loginCommand() *command {
	var email, password string
	return &command{
		Name:    "login",
		Summary: "Sign in and store the session locally",
		Usage:   "roombook login --email <email> --password <password>",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
			fs.StringVar(&email, "email", "", "account email")
			fs.StringVar(&password, "password", "", "account password")
			return fs
		},
		Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
			rt, err := a.runtime(ctx, navigation.Login)
			if err != nil {
				return err
			}
			if err := rt.Login(ctx, email, password); err != nil {
				return err
			}
			user := rt.Manager.User()
			fmt.Fprintf(a.out, "Signed in as %s (%s).\n", user.Name, user.Role)
			return nil
		},
	}
}

func (a *app) registerCommand() *command {
	var req model.RegisterRequest
	return &command{
		Name:    "register",
		Summary: "Create an account and sign in",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
			fs.StringVar(&req.Name, "name", "", "full name")
			fs.StringVar(&req.Email, "email", "", "account email")
			fs.StringVar(&req.Password, "password", "", "account password (at least 6 characters)")
			return fs
		},
		Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
			rt, err := a.runtime(ctx, navigation.Register)
			if err != nil {
				return err
			}
			if err := rt.Register(ctx, req); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Welcome, %s.\n", rt.Manager.User().Name)
			return nil
		},
	}
}

func (a *app) logoutCommand() *command {
	return &command{
		Name:    "logout",
		Summary: "Sign out and forget the stored session",
		Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
			rt, err := a.runtime(ctx, navigation.Dashboard)
			if err != nil {
				return err
			}
			rt.Logout(ctx)
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *command {
	return &command{
		Name:    "whoami",
		Summary: "Show the signed in user, refreshed from the server",
		Flags:   func() *pflag.FlagSet { return a.flags("whoami") },
		Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
			rt, err := a.runtime(ctx, navigation.Dashboard)
			if err != nil {
				return err
			}
			rt.Manager.RefreshUser(ctx)
			user := rt.Manager.User()
			if user == nil {
				return portal.ErrAccessDenied
			}
			return render(a.out, a.format, user, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "Name:\t%s (%s)\n", user.Name, portal.Initials(user.Name))
				fmt.Fprintf(tw, "Email:\t%s\n", user.Email)
				fmt.Fprintf(tw, "Role:\t%s\n", user.Role)
			})
		},
	}
}

func (a *app) dashboardCommand() *command {
	return &command{
		Name:    "dashboard",
		Summary: "Show recent bookings and their approval state",
		Flags:   func() *pflag.FlagSet { return a.flags("dashboard") },
		Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
			rt, err := a.runtime(ctx, navigation.Dashboard)
			if err != nil {
				return err
			}
			view, err := rt.Dashboard(ctx)
			if err != nil {
				return err
			}
			return render(a.out, a.format, view, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "Welcome back, %s.\n", view.User.Name)
				fmt.Fprintf(tw, "Pending:\t%d\nApproved:\t%d\n\n", view.PendingCount, view.ApprovedCount)
				bookingRows(tw, view.Recent)
			})
		},
	}
}

func (a *app) bookingsCommand() *command {
	return &command{
		Name:    "bookings",
		Summary: "List, create, edit and cancel your bookings",
		Subcommands: []*command{
			a.bookingsListCommand(),
			a.bookingsShowCommand(),
			a.bookingsCreateCommand(),
			a.bookingsEditCommand(),
			a.bookingsCancelCommand(),
		},
	}
}

func (a *app) bookingsListCommand() *command {
	var filters model.BookingFilters
	var status, order string
	return &command{
		Name:    "list",
		Summary: "List your bookings",
		Flags: func() *pflag.FlagSet {
			fs := a.flags("list")
			fs.IntVar(&filters.Page, "page", 1, "page number")
			fs.IntVar(&filters.Limit, "limit", 10, "results per page")
			fs.StringVar(&status, "status", "", "pending, approved, rejected or cancelled")
			fs.StringVar(&filters.RoomID, "room", "", "room id")
			fs.StringVar(&filters.DateFrom, "from", "", "earliest date (YYYY-MM-DD)")
			fs.StringVar(&filters.DateTo, "to", "", "latest date (YYYY-MM-DD)")
			fs.StringVar(&filters.Search, "search", "", "search text")
			fs.StringVar(&filters.SortBy, "sort-by", "", "sort field, e.g. date or createdAt")
			fs.StringVar(&order, "order", "", "asc or desc")
			return fs
		},
		Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
			rt, err := a.runtime(ctx, navigation.MyBookings)
			if err != nil {
				return err
			}
			filters.Status = model.BookingStatus(status)
			filters.SortOrder = model.SortOrder(order)
			page, err := rt.MyBookings(ctx, filters)
			if err != nil {
				return err
			}
			return render(a.out, a.format, page, func(tw *tabwriter.Writer) {
				bookingRows(tw, page.Data)
				pageFooter(tw, page.Pagination)
			})
		},
	}
}

func (a *app) bookingsShowCommand() *command {
	return &command{
		Name:    "show",
		Summary: "Show a booking",
		Usage:   "roombook bookings show <id> [flags]",
		Flags:   func() *pflag.FlagSet { return a.flags("show") },
		Run: func(ctx context.Context, _ *pflag.FlagSet, args []string) error {
			if err := exactArgs(args, "<id>"); err != nil {
				return err
			}
			rt, err := a.runtime(ctx, navigation.BookingDetail(args[0]))
			if err != nil {
				return err
			}
			view, err := rt.BookingDetail(ctx, args[0])
			if err != nil {
				return err
			}
			b := view.Booking
			return render(a.out, a.format, b, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "%s\n%s\n\n", view.Notice.Title, view.Notice.Message)
				fmt.Fprintf(tw, "Room:\t%s\n", b.RoomName())
				fmt.Fprintf(tw, "Date:\t%s\n", portal.FormatDate(b.Date))
				fmt.Fprintf(tw, "Time:\t%s - %s\n", portal.FormatTime(b.StartTime), portal.FormatTime(b.EndTime))
				fmt.Fprintf(tw, "Description:\t%s\n", b.Description)
				if view.RejectionReason != "" {
					fmt.Fprintf(tw, "Rejection reason:\t%s\n", view.RejectionReason)
				}
				fmt.Fprintf(tw, "Created:\t%s\n", portal.FormatDateTime(b.CreatedAt))
			})
		},
	}
}

func (a *app) bookingsCreateCommand() *command {
	var req model.CreateBookingRequest
	return &command{
		Name:    "create",
		Summary: "Request a room booking",
		Flags: func() *pflag.FlagSet {
			fs := a.flags("create")
			fs.StringVar(&req.RoomID, "room", "", "room id")
			fs.StringVar(&req.Date, "date", "", "date (YYYY-MM-DD)")
			fs.StringVar(&req.StartTime, "start", "", "start time (HH:MM)")
			fs.StringVar(&req.EndTime, "end", "", "end time (HH:MM)")
			fs.StringVar(&req.Description, "description", "", "purpose of the meeting (at least 10 characters)")
			return fs
		},
		Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
			rt, err := a.runtime(ctx, navigation.CreateBooking)
			if err != nil {
				return err
			}
			booking, err := rt.CreateBooking(ctx, req)
			if err != nil {
				return err
			}
			return render(a.out, a.format, booking, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "Booking %s created and awaiting approval.\n", booking.ID)
			})
		},
	}
}

func (a *app) bookingsEditCommand() *command {
	var roomID, date, start, end, description string
	return &command{
		Name:    "edit",
		Summary: "Change a booking; approved bookings accept only a new description",
		Usage:   "roombook bookings edit <id> [flags]",
		Flags: func() *pflag.FlagSet {
			fs := a.flags("edit")
			fs.StringVar(&roomID, "room", "", "room id")
			fs.StringVar(&date, "date", "", "date (YYYY-MM-DD)")
			fs.StringVar(&start, "start", "", "start time (HH:MM)")
			fs.StringVar(&end, "end", "", "end time (HH:MM)")
			fs.StringVar(&description, "description", "", "purpose of the meeting")
			return fs
		},
		Run: func(ctx context.Context, flags *pflag.FlagSet, args []string) error {
			if err := exactArgs(args, "<id>"); err != nil {
				return err
			}
			id := args[0]
			rt, err := a.runtime(ctx, navigation.EditBooking(id))
			if err != nil {
				return err
			}
			view, err := rt.EditBooking(ctx, id)
			if err != nil {
				return err
			}
			if view.Policy.Notice != "" {
				fmt.Fprintln(a.errOut, view.Policy.Notice)
			}

			var req model.UpdateBookingRequest
			set := func(name string, value *string) *string {
				if flags.Changed(name) {
					return value
				}
				return nil
			}
			req.RoomID = set("room", &roomID)
			req.Date = set("date", &date)
			req.StartTime = set("start", &start)
			req.EndTime = set("end", &end)
			req.Description = set("description", &description)

			booking, err := rt.UpdateBooking(ctx, id, req)
			if err != nil {
				return err
			}
			return render(a.out, a.format, booking, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "Booking %s updated.\n", booking.ID)
			})
		},
	}
}

func (a *app) bookingsCancelCommand() *command {
	return &command{
		Name:    "cancel",
		Summary: "Cancel a pending or approved booking",
		Usage:   "roombook bookings cancel <id>",
		Run: func(ctx context.Context, _ *pflag.FlagSet, args []string) error {
			if err := exactArgs(args, "<id>"); err != nil {
				return err
			}
			rt, err := a.runtime(ctx, navigation.MyBookings)
			if err != nil {
				return err
			}
			booking, err := rt.CancelBooking(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Booking %s cancelled.\n", booking.ID)
			return nil
		},
	}
}

func (a *app) roomsCommand() *command {
	return &command{
		Name:    "rooms",
		Summary: "List the bookable rooms",
		Subcommands: []*command{{
			Name:    "list",
			Summary: "List rooms",
			Flags:   func() *pflag.FlagSet { return a.flags("list") },
			Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
				rt, err := a.runtime(ctx, navigation.CreateBooking)
				if err != nil {
					return err
				}
				rooms, err := rt.RoomOptions(ctx)
				if err != nil {
					return err
				}
				return render(a.out, a.format, rooms, func(tw *tabwriter.Writer) { roomRows(tw, rooms) })
			},
		}},
	}
}

func (a *app) adminCommand() *command {
	return &command{
		Name:    "admin",
		Summary: "Administrator pages: approvals and room management",
		Subcommands: []*command{
			a.adminDashboardCommand(),
			a.adminPendingCommand(),
			a.adminApproveCommand(),
			a.adminRejectCommand(),
			a.adminRoomsCommand(),
		},
	}
}

func (a *app) adminDashboardCommand() *command {
	return &command{
		Name:    "dashboard",
		Summary: "Show pending approvals and room count",
		Flags:   func() *pflag.FlagSet { return a.flags("dashboard") },
		Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
			rt, err := a.runtime(ctx, navigation.AdminDashboard)
			if err != nil {
				return err
			}
			view, err := rt.AdminDashboard(ctx)
			if err != nil {
				return err
			}
			return render(a.out, a.format, view, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "Pending approvals:\t%d\nRooms:\t%d\n\n", view.PendingCount, view.RoomCount)
				bookingRows(tw, view.Pending)
			})
		},
	}
}

func (a *app) adminPendingCommand() *command {
	return &command{
		Name:    "pending",
		Summary: "List bookings awaiting approval",
		Flags:   func() *pflag.FlagSet { return a.flags("pending") },
		Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
			rt, err := a.runtime(ctx, navigation.AdminBookings)
			if err != nil {
				return err
			}
			page, err := rt.PendingBookings(ctx)
			if err != nil {
				return err
			}
			return render(a.out, a.format, page, func(tw *tabwriter.Writer) {
				bookingRows(tw, page.Data)
				pageFooter(tw, page.Pagination)
			})
		},
	}
}

func (a *app) adminApproveCommand() *command {
	return &command{
		Name:    "approve",
		Summary: "Approve a pending booking",
		Usage:   "roombook admin approve <id>",
		Run: func(ctx context.Context, _ *pflag.FlagSet, args []string) error {
			if err := exactArgs(args, "<id>"); err != nil {
				return err
			}
			rt, err := a.runtime(ctx, navigation.AdminBookings)
			if err != nil {
				return err
			}
			booking, err := rt.ApproveBooking(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Booking %s approved.\n", booking.ID)
			return nil
		},
	}
}

func (a *app) adminRejectCommand() *command {
	var reason string
	return &command{
		Name:    "reject",
		Summary: "Reject a pending booking with a reason",
		Usage:   "roombook admin reject <id> --reason <text>",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("reject", pflag.ContinueOnError)
			fs.StringVar(&reason, "reason", "", "reason shown to the requester")
			return fs
		},
		Run: func(ctx context.Context, _ *pflag.FlagSet, args []string) error {
			if err := exactArgs(args, "<id>"); err != nil {
				return err
			}
			rt, err := a.runtime(ctx, navigation.AdminBookings)
			if err != nil {
				return err
			}
			booking, err := rt.RejectBooking(ctx, args[0], reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Booking %s rejected.\n", booking.ID)
			return nil
		},
	}
}

func (a *app) adminRoomsCommand() *command {
	return &command{
		Name:    "rooms",
		Summary: "Create, update and delete rooms and their photos",
		Subcommands: []*command{
			a.adminRoomsListCommand(),
			a.adminRoomsCreateCommand(),
			a.adminRoomsUpdateCommand(),
			a.adminRoomsDeleteCommand(),
			a.adminRoomsPhotosCommand(),
			a.adminRoomsUploadCommand(),
			a.adminRoomsDeletePhotoCommand(),
			a.adminRoomsSetCoverCommand(),
		},
	}
}

func (a *app) adminRoomsListCommand() *command {
	return &command{
		Name:    "list",
		Summary: "List rooms",
		Flags:   func() *pflag.FlagSet { return a.flags("list") },
		Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
			rt, err := a.runtime(ctx, navigation.AdminRooms)
			if err != nil {
				return err
			}
			rooms, err := rt.AdminRooms(ctx)
			if err != nil {
				return err
			}
			return render(a.out, a.format, rooms, func(tw *tabwriter.Writer) { roomRows(tw, rooms) })
		},
	}
}

func (a *app) adminRoomsCreateCommand() *command {
	var req model.CreateRoomRequest
	return &command{
		Name:    "create",
		Summary: "Create a room",
		Flags: func() *pflag.FlagSet {
			fs := a.flags("create")
			fs.StringVar(&req.Name, "name", "", "room name")
			fs.IntVar(&req.Capacity, "capacity", 0, "number of seats")
			fs.StringVar(&req.Location, "location", "", "where the room is")
			return fs
		},
		Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
			rt, err := a.runtime(ctx, navigation.AdminRooms)
			if err != nil {
				return err
			}
			room, err := rt.CreateRoom(ctx, req)
			if err != nil {
				return err
			}
			return render(a.out, a.format, room, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "Room %s created.\n", room.ID)
			})
		},
	}
}

func (a *app) adminRoomsUpdateCommand() *command {
	var name, description, location string
	var capacity int
	var facilities []string
	return &command{
		Name:    "update",
		Summary: "Update a room",
		Usage:   "roombook admin rooms update <id> [flags]",
		Flags: func() *pflag.FlagSet {
			fs := a.flags("update")
			fs.StringVar(&name, "name", "", "room name")
			fs.StringVar(&description, "description", "", "room description")
			fs.IntVar(&capacity, "capacity", 0, "number of seats")
			fs.StringVar(&location, "location", "", "where the room is")
			fs.StringSliceVar(&facilities, "facility", nil, "facility available in the room (repeatable)")
			return fs
		},
		Run: func(ctx context.Context, flags *pflag.FlagSet, args []string) error {
			if err := exactArgs(args, "<id>"); err != nil {
				return err
			}
			var req model.UpdateRoomRequest
			if flags.Changed("name") {
				req.Name = &name
			}
			if flags.Changed("description") {
				req.Description = &description
			}
			if flags.Changed("capacity") {
				req.Capacity = &capacity
			}
			if flags.Changed("location") {
				req.Location = &location
			}
			if flags.Changed("facility") {
				req.Facilities = facilities
			}

			rt, err := a.runtime(ctx, navigation.AdminRooms)
			if err != nil {
				return err
			}
			room, err := rt.UpdateRoom(ctx, args[0], req)
			if err != nil {
				return err
			}
			return render(a.out, a.format, room, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "Room %s updated.\n", room.ID)
			})
		},
	}
}

func (a *app) adminRoomsDeleteCommand() *command {
	return &command{
		Name:    "delete",
		Summary: "Delete a room",
		Usage:   "roombook admin rooms delete <id>",
		Run: func(ctx context.Context, _ *pflag.FlagSet, args []string) error {
			if err := exactArgs(args, "<id>"); err != nil {
				return err
			}
			rt, err := a.runtime(ctx, navigation.AdminRooms)
			if err != nil {
				return err
			}
			if err := rt.DeleteRoom(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Room %s deleted.\n", args[0])
			return nil
		},
	}
}

func (a *app) adminRoomsPhotosCommand() *command {
	return &command{
		Name:    "photos",
		Summary: "List the photos of a room",
		Usage:   "roombook admin rooms photos <room-id> [flags]",
		Flags:   func() *pflag.FlagSet { return a.flags("photos") },
		Run: func(ctx context.Context, _ *pflag.FlagSet, args []string) error {
			if err := exactArgs(args, "<room-id>"); err != nil {
				return err
			}
			rt, err := a.runtime(ctx, navigation.AdminRooms)
			if err != nil {
				return err
			}
			gallery, err := rt.RoomPhotos(ctx, args[0])
			if err != nil {
				return err
			}
			return render(a.out, a.format, gallery, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "ID\tCOVER\tURL\n")
				for _, photo := range gallery.Photos {
					cover := ""
					if photo.IsCover {
						cover = "yes"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", photo.ID, cover, rt.Rooms.AssetURL(photo.PhotoURL))
				}
			})
		},
	}
}

func (a *app) adminRoomsUploadCommand() *command {
	var cover bool
	return &command{
		Name:    "upload",
		Summary: "Upload one or more photos to a room",
		Usage:   "roombook admin rooms upload <room-id> <file>... [--cover]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("upload", pflag.ContinueOnError)
			fs.BoolVar(&cover, "cover", false, "make the upload the cover photo")
			return fs
		},
		Run: func(ctx context.Context, _ *pflag.FlagSet, args []string) error {
			if len(args) < 2 {
				return errors.New("expected arguments: <room-id> <file>...")
			}
			photos := make([]service.Photo, 0, len(args)-1)
			for _, name := range args[1:] {
				file, err := os.Open(name)
				if err != nil {
					return err
				}
				defer file.Close()
				photos = append(photos, service.Photo{
					Filename:    filepath.Base(name),
					ContentType: mime.TypeByExtension(filepath.Ext(name)),
					Content:     file,
				})
			}

			rt, err := a.runtime(ctx, navigation.AdminRooms)
			if err != nil {
				return err
			}
			results, err := rt.UploadPhotos(ctx, args[0], photos, cover)
			if err != nil {
				return err
			}
			failed := 0
			for _, result := range results {
				if result.Err != nil {
					failed++
					fmt.Fprintf(a.out, "%s: failed: %v\n", result.Filename, result.Err)
					continue
				}
				fmt.Fprintf(a.out, "%s: uploaded\n", result.Filename)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", failed, len(results))
			}
			return nil
		},
	}
}

func (a *app) adminRoomsDeletePhotoCommand() *command {
	return &command{
		Name:    "delete-photo",
		Summary: "Remove a photo from a room",
		Usage:   "roombook admin rooms delete-photo <room-id> <photo-id>",
		Run: func(ctx context.Context, _ *pflag.FlagSet, args []string) error {
			if err := exactArgs(args, "<room-id>", "<photo-id>"); err != nil {
				return err
			}
			rt, err := a.runtime(ctx, navigation.AdminRooms)
			if err != nil {
				return err
			}
			if _, err := rt.DeletePhoto(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Photo %s deleted.\n", args[1])
			return nil
		},
	}
}

func (a *app) adminRoomsSetCoverCommand() *command {
	return &command{
		Name:    "set-cover",
		Summary: "Make a photo the cover of its room",
		Usage:   "roombook admin rooms set-cover <photo-id>",
		Run: func(ctx context.Context, _ *pflag.FlagSet, args []string) error {
			if err := exactArgs(args, "<photo-id>"); err != nil {
				return err
			}
			rt, err := a.runtime(ctx, navigation.AdminRooms)
			if err != nil {
				return err
			}
			room, err := rt.SetCoverPhoto(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Cover of %s updated.\n", room.Name)
			return nil
		},
	}
}
