package types

// User is a bare account record. It is created once and never changed.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// NewUser is the input to Store.CreateUser.
type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
