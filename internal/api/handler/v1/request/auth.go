package request

import (
	"errors"
	"regexp"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	passwordRegexPattern = `^(?=.*[A-Za-z])(?=.*\d).{6,}$`
)

var (
	passwordExp = regexp2.MustCompile(passwordRegexPattern, regexp2.None)
	phoneExp    = regexp.MustCompile(`^\d{11}$`)

	errInvalidPassword = errors.New("the password must be at least 6 characters and contain 1 letter and 1 number")
)

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Image    string `json:"image,omitempty"`
}

func (req *SignupRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(3, 100)),
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
		validation.Field(&req.Phone, validation.Required, validation.Match(phoneExp).Error("must have 11 digits")),
		validation.Field(&req.Image, is.URL),
	)
	if err != nil {
		return err
	}

	return validatePassword(req.Password)
}

type AdminSignupRequest struct {
	SignupRequest
	Secret string `json:"secret"`
}

func (req *AdminSignupRequest) Validate() error {
	if err := validation.ValidateStruct(req, validation.Field(&req.Secret, validation.Required)); err != nil {
		return err
	}

	return req.SignupRequest.Validate()
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *LoginRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
	)
}

type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Phone    *string `json:"phone"`
	Image    *string `json:"image"`
}

func (req *UpdateUserRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(3, 100)),
		validation.Field(&req.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&req.Phone, validation.NilOrNotEmpty, validation.Match(phoneExp).Error("must have 11 digits")),
		validation.Field(&req.Image, is.URL),
	)
	if err != nil {
		return err
	}

	if req.Password != nil {
		return validatePassword(*req.Password)
	}

	return nil
}

func validatePassword(password string) error {
	ok, err := passwordExp.MatchString(password)
	if err != nil || !ok {
		return errInvalidPassword
	}

	return nil
}
