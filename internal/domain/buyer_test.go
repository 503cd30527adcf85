package domain

import "testing"

func TestBuyer_NormalizeAndValidate(t *testing.T) {
	t.Parallel()

	valid := Buyer{FullName: " Amina Yusuf ", Email: " Amina@Example.COM ", Phone: "0300", Address: "12 Mill Road"}

	tests := []struct {
		name  string
		buyer Buyer
		want  error
	}{
		{name: "valid", buyer: valid, want: nil},
		{name: "missing address", buyer: Buyer{FullName: "A", Email: "a@b.co", Phone: "1"}, want: ErrBuyerDetailsRequired},
		{name: "blank name", buyer: Buyer{FullName: "  ", Email: "a@b.co", Phone: "1", Address: "x"}, want: ErrBuyerDetailsRequired},
		{name: "no at sign", buyer: Buyer{FullName: "A", Email: "ab.co", Phone: "1", Address: "x"}, want: ErrInvalidEmail},
		{name: "no dot in domain", buyer: Buyer{FullName: "A", Email: "a@bco", Phone: "1", Address: "x"}, want: ErrInvalidEmail},
		{name: "two at signs", buyer: Buyer{FullName: "A", Email: "a@b@c.co", Phone: "1", Address: "x"}, want: ErrInvalidEmail},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.buyer.Normalize().Validate(); err != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	n := valid.Normalize()
	if n.Email != "amina@example.com" || n.FullName != "Amina Yusuf" {
		t.Fatalf("unexpected normalized buyer: %+v", n)
	}
}

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	if !BookingStatusPending.CanTransitionTo(BookingStatusConfirmed) {
		t.Fatalf("pending -> confirmed should be allowed")
	}
	if !BookingStatusConfirmed.CanTransitionTo(BookingStatusCancelled) {
		t.Fatalf("confirmed -> cancelled should be allowed")
	}
	if BookingStatusCompleted.CanTransitionTo(BookingStatusCancelled) {
		t.Fatalf("completed is terminal")
	}
	if BookingStatusCancelled.CanTransitionTo(BookingStatusConfirmed) {
		t.Fatalf("cancelled is terminal")
	}
}
