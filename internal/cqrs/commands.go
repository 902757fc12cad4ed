package cqrs

type RegisterCommand struct {
	AccountName   string
	Password      string
	CheckPassword string
	PlanetCode    string
}

type LoginCommand struct {
	AccountName string
	Password    string
}

type DeleteUserCommand struct {
	UserID int64
}
