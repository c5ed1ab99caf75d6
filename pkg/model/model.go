package model

// User is the outward-facing shape of an account. The password never
// appears here; the token only does directly after a login.
type User struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Token    string `json:"token,omitempty"`
}

// Contact is the outward-facing shape of an address book entry.
type Contact struct {
	Id        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// Address is the outward-facing shape of an address of a contact.
type Address struct {
	Id         int64   `json:"id"`
	Street     *string `json:"street,omitempty"`
	City       *string `json:"city,omitempty"`
	Province   *string `json:"province,omitempty"`
	Country    string  `json:"country"`
	PostalCode string  `json:"postal_code"`
}

// Paging describes one page of a search result. TotalPage is derived from
// the owner's full contact count, CurrentPage is 1-indexed.
type Paging struct {
	Size        int `json:"size"`
	TotalPage   int `json:"total_page"`
	CurrentPage int `json:"current_page"`
}

// ContactPage is the response body of a contact search: the matching rows
// of the requested page plus the page descriptor.
type ContactPage struct {
	Data   []Contact `json:"data"`
	Paging Paging    `json:"paging"`
}
