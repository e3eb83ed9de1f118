package domain

const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

type User struct {
	Id           string
	Username     string
	Role         string
	PasswordHash string
}

// Identity is what a verified session token tells about its bearer.
type Identity struct {
	UserId   string
	Username string
	Role     string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
