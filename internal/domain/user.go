package domain

// FallbackLanguage is assigned to newly registered users and used when a
// catalog has no entry for the user's language.
const FallbackLanguage = "en"

// User is a directory record: one Telegram recipient and their notification
// profile. RefID and Address stay nil until the user links an on-chain account.
type User struct {
	ID       int64   `json:"id"`
	Language string  `json:"language"`
	RefID    *string `json:"ref_id"`
	Address  *string `json:"address"`
}

// NewDefaultUser builds the record created on first contact.
func NewDefaultUser(id int64) *User {
	return &User{
		ID:       id,
		Language: FallbackLanguage,
	}
}

// Clone returns a deep copy so callers can mutate results without touching
// store-owned state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}

	cp := *u
	if u.RefID != nil {
		refID := *u.RefID
		cp.RefID = &refID
	}
	if u.Address != nil {
		address := *u.Address
		cp.Address = &address
	}

	return &cp
}
