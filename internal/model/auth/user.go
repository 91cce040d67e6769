package auth

// User is the locally cached snapshot of an identity provider account.
type User struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}
