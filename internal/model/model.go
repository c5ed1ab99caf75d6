package model

// User is the account that owns an address book. The password column holds
// a bcrypt hash, never the plaintext. The token column holds the currently
// active API token and is NULL while the user is logged out.
type User struct {
	Username string  `json:"username" db:"username"`
	Password string  `json:"-"        db:"password"`
	Name     string  `json:"name"     db:"name"`
	Token    *string `json:"-"        db:"token"`
}

// Contact is a person in a user's address book. All fields except the
// first name are optional. The username column is the owning user.
type Contact struct {
	Id        int64   `json:"id"                  db:"id"`
	FirstName string  `json:"first_name"          db:"first_name"`
	LastName  *string `json:"last_name,omitempty" db:"last_name"`
	Email     *string `json:"email,omitempty"     db:"email"`
	Phone     *string `json:"phone,omitempty"     db:"phone"`
	Username  string  `json:"-"                   db:"username"`
}

// Address belongs to exactly one contact. Country and postal code are
// mandatory, the remaining fields are optional.
type Address struct {
	Id         int64   `json:"id"                 db:"id"`
	Street     *string `json:"street,omitempty"   db:"street"`
	City       *string `json:"city,omitempty"     db:"city"`
	Province   *string `json:"province,omitempty" db:"province"`
	Country    string  `json:"country"            db:"country"`
	PostalCode string  `json:"postal_code"        db:"postal_code"`
	ContactId  int64   `json:"-"                  db:"contact_id"`
}
