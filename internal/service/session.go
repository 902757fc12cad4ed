package service

import (
	"encoding/gob"

	"github.com/WinterTin/user-center/internal/models"
)

// UserLoginState is the session key holding the logged-in UserView.
const UserLoginState = "userLoginState"

func init() {
	// session stores encode values with gob
	gob.Register(models.UserView{})
}

// Session is the per-client attribute bag the service reads and writes.
// sessions.Session from gin-contrib/sessions satisfies it.
type Session interface {
	Get(key interface{}) interface{}
	Set(key interface{}, val interface{})
	Delete(key interface{})
	Save() error
}

// IsAdmin reports whether session carries a logged-in administrator.
// It never fails: a nil session or absent login state is simply false.
func IsAdmin(session Session) bool {
	view, ok := loginState(session)
	return ok && view.Role == models.RoleAdmin
}

func loginState(session Session) (*models.UserView, bool) {
	if session == nil {
		return nil, false
	}
	switch v := session.Get(UserLoginState).(type) {
	case models.UserView:
		return &v, true
	case *models.UserView:
		if v != nil {
			return v, true
		}
	}
	return nil, false
}
