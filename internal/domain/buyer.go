package domain

import "strings"

// Buyer holds the contact details captured at checkout.
type Buyer struct {
	FullName string
	Email    string
	Phone    string
	Address  string
	Notes    string
}

// Normalize trims every field and lower-cases the email.
func (b Buyer) Normalize() Buyer {
	return Buyer{
		FullName: strings.TrimSpace(b.FullName),
		Email:    strings.ToLower(strings.TrimSpace(b.Email)),
		Phone:    strings.TrimSpace(b.Phone),
		Address:  strings.TrimSpace(b.Address),
		Notes:    strings.TrimSpace(b.Notes),
	}
}

// Validate expects a normalized buyer.
func (b Buyer) Validate() error {
	if b.FullName == "" || b.Email == "" || b.Phone == "" || b.Address == "" {
		return ErrBuyerDetailsRequired
	}
	local, domainPart, ok := strings.Cut(b.Email, "@")
	if !ok || local == "" || strings.Contains(domainPart, "@") || !strings.Contains(domainPart, ".") {
		return ErrInvalidEmail
	}
	return nil
}
