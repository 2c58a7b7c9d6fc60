package handler

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Patagonia Trek", "patagonia-trek"},
		{"  W Circuit -- Torres del Paine  ", "w-circuit-torres-del-paine"},
		{"Salar de Uyuni & Stars", "salar-de-uyuni-stars"},
		{"2026 Andes Expedition", "2026-andes-expedition"},
	}
	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTourReqValidate(t *testing.T) {
	req := tourReq{Name: "Patagonia Trek", DurationDays: 8, PricePerPerson: 2500}
	if msg, ok := req.validate(); !ok {
		t.Fatalf("valid request rejected: %s", msg)
	}
	if req.Slug != "patagonia-trek" {
		t.Errorf("slug = %q, want derived slug", req.Slug)
	}
	if req.Currency != "USD" {
		t.Errorf("currency = %q, want USD default", req.Currency)
	}

	bad := tourReq{Name: "", DurationDays: 8}
	if _, ok := bad.validate(); ok {
		t.Error("empty name should be rejected")
	}
	bad = tourReq{Name: "X", DurationDays: 0}
	if _, ok := bad.validate(); ok {
		t.Error("zero duration should be rejected")
	}
	bad = tourReq{Name: "X", DurationDays: 1, PricePerPerson: -5}
	if _, ok := bad.validate(); ok {
		t.Error("negative price should be rejected")
	}
}

func TestTourReqToModelConvertsPriceToCents(t *testing.T) {
	req := tourReq{Name: "Trek", DurationDays: 5, PricePerPerson: 1234.56}
	if _, ok := req.validate(); !ok {
		t.Fatal("validate failed")
	}
	m := req.toModel()
	if m.PricePerPersonCents != 123456 {
		t.Errorf("cents = %d, want 123456", m.PricePerPersonCents)
	}
	if !m.Active {
		t.Error("active should default to true")
	}
}

func TestDepartureReqParse(t *testing.T) {
	req := departureReq{StartDate: "2026-11-03", EndDate: "2026-11-10", TotalSeats: 12}
	start, end, msg, ok := req.parse()
	if !ok {
		t.Fatalf("valid departure rejected: %s", msg)
	}
	if start.After(end) {
		t.Error("parsed dates out of order")
	}

	bad := departureReq{StartDate: "03/11/2026", EndDate: "2026-11-10", TotalSeats: 12}
	if _, _, _, ok := bad.parse(); ok {
		t.Error("non-ISO start date should be rejected")
	}
	bad = departureReq{StartDate: "2026-11-10", EndDate: "2026-11-03", TotalSeats: 12}
	if _, _, _, ok := bad.parse(); ok {
		t.Error("end before start should be rejected")
	}
	bad = departureReq{StartDate: "2026-11-03", EndDate: "2026-11-10", TotalSeats: 0}
	if _, _, _, ok := bad.parse(); ok {
		t.Error("zero seats should be rejected")
	}
}
