package model

import "time"

// Tour represents one tour offering in the catalog.  Departures are
// scheduled separately; the price here is per person and applies to
// every departure of the tour unless a reservation carries an explicit
// override amount.
//
// Fields:
//  ID               – primary key identifier.
//  Name             – display name of the tour.
//  Slug             – unique URL-friendly identifier.
//  Country          – destination country.
//  DurationDays     – length of the tour in days.
//  ActivityLevel    – physical difficulty (low, moderate, high).
//  PricePerPersonCents – price per traveller in cents.
//  Currency         – ISO currency code (e.g. "USD").
//  ShortDescription – teaser text for listing cards.
//  LongDescription  – full description for the detail page.
//  Active           – whether the tour is bookable and publicly listed.
type Tour struct {
    ID                  uint64    // tours.id
    Name                string    // tours.name
    Slug                string    // tours.slug
    Country             string    // tours.country
    DurationDays        int       // tours.duration_days
    ActivityLevel       string    // tours.activity_level
    PricePerPersonCents uint32    // tours.price_per_person_cents
    Currency            string    // tours.currency
    ShortDescription    string    // tours.short_description
    LongDescription     string    // tours.long_description
    Active              bool      // tours.active
    CreatedAt           time.Time // tours.created_at
    UpdatedAt           time.Time // tours.updated_at
}
