package models

import "time"

// UserView is the projection of a user that may leave the service.
// It has no credential or deletion fields.
type UserView struct {
	ID          int64     `json:"id"`
	AccountName string    `json:"userAccount"`
	Username    string    `json:"username"`
	AvatarURL   string    `json:"avatarUrl"`
	Gender      int       `json:"gender"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Status      int       `json:"userStatus"`
	Role        Role      `json:"userRole"`
	PlanetCode  string    `json:"planetCode"`
	CreatedAt   time.Time `json:"createTime"`
}

// ToView desensitizes u. A nil user yields nil.
func ToView(u *User) *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:          u.ID,
		AccountName: u.AccountName,
		Username:    u.Username,
		AvatarURL:   u.AvatarURL,
		Gender:      u.Gender,
		Phone:       u.Phone,
		Email:       u.Email,
		Status:      u.Status,
		Role:        u.Role,
		PlanetCode:  u.PlanetCode,
		CreatedAt:   u.CreatedAt,
	}
}

// ToViews desensitizes every user in order.
func ToViews(users []User) []UserView {
	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, *ToView(&users[i]))
	}
	return views
}
