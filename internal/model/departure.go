package model

import "time"

// Departure is one scheduled, dated run of a tour with its own seat
// inventory.  OccupiedSeats is mutated exclusively by the booking
// capacity manager through the departure repository; no other code
// path may write it.  The invariant 0 <= occupied <= total holds
// after every committed mutation.
//
// Fields:
//  ID            – primary key identifier.
//  TourID        – owning tour.
//  StartDate     – first day of the departure (date only, UTC).
//  EndDate       – last day of the departure (date only, UTC).
//  TotalSeats    – seat capacity for this departure.
//  OccupiedSeats – seats held by non-cancelled reservations.
//  Status        – advisory lifecycle (open, full, closed, cancelled).
//  Notes         – free-text operator notes.
type Departure struct {
    ID            uint64          // departures.id
    TourID        uint64          // departures.tour_id
    StartDate     time.Time       // departures.start_date
    EndDate       time.Time       // departures.end_date
    TotalSeats    int             // departures.total_seats
    OccupiedSeats int             // departures.occupied_seats
    Status        DepartureStatus // departures.status
    Notes         string          // departures.notes
    CreatedAt     time.Time       // departures.created_at
    UpdatedAt     time.Time       // departures.updated_at
}

// AvailableSeats returns the number of seats still open on the
// departure.  It never returns a negative value.
func (d *Departure) AvailableSeats() int {
    avail := d.TotalSeats - d.OccupiedSeats
    if avail < 0 {
        return 0
    }
    return avail
}
