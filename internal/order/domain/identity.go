package domain

import "errors"

var ErrInvalidIdentity = errors.New("identity must set exactly one of account id or guest email")

// Identity names the party that owns an order: either a registered
// account or a guest checkout email, never both and never neither.
type Identity struct {
	AccountID  string
	GuestEmail string
}

func AccountIdentity(accountID string) Identity { return Identity{AccountID: accountID} }
func GuestIdentity(email string) Identity       { return Identity{GuestEmail: email} }

func (i Identity) Validate() error {
	if (i.AccountID == "") == (i.GuestEmail == "") {
		return ErrInvalidIdentity
	}
	return nil
}

func (i Identity) IsGuest() bool { return i.GuestEmail != "" }

// Key is the quota bucket for this identity. Reservation counting and
// the admission lock both key on it.
func (i Identity) Key() string {
	if i.AccountID != "" {
		return "account:" + i.AccountID
	}
	return "guest:" + i.GuestEmail
}
