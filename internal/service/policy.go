package service

import (
	"fmt"
	"unicode/utf8"

	"github.com/WinterTin/user-center/internal/cqrs"
	"github.com/WinterTin/user-center/internal/utils"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Policy holds the registration rules.
type Policy struct {
	MinAccountLength    int
	MinPasswordLength   int
	MaxPlanetCodeLength int
}

func DefaultPolicy() Policy {
	return Policy{
		MinAccountLength:    4,
		MinPasswordLength:   8,
		MaxPlanetCodeLength: 5,
	}
}

func (p Policy) check(cmd cqrs.RegisterCommand) error {
	if utf8.RuneCountInString(cmd.AccountName) < p.MinAccountLength {
		return newError(KindValidation, fmt.Sprintf("account name must be at least %d characters", p.MinAccountLength))
	}
	if !utils.IsAccountName(cmd.AccountName) {
		return newError(KindValidation, "account name may only contain letters, digits and underscores")
	}
	if utf8.RuneCountInString(cmd.Password) < p.MinPasswordLength || utf8.RuneCountInString(cmd.CheckPassword) < p.MinPasswordLength {
		return newError(KindValidation, fmt.Sprintf("password must be at least %d characters", p.MinPasswordLength))
	}
	if len(cmd.Password) > MaxPasswordBytes {
		return newError(KindValidation, fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
	}
	if p.MaxPlanetCodeLength > 0 && utf8.RuneCountInString(cmd.PlanetCode) > p.MaxPlanetCodeLength {
		return newError(KindValidation, fmt.Sprintf("planet code must be at most %d characters", p.MaxPlanetCodeLength))
	}
	return nil
}
