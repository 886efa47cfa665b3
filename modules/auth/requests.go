package auth

import (
	"encoding/json"
	"net/http"
	"net/mail"
)

// decodeJSON parses the request body into dst. A malformed body is a
// validation problem, not a server error.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		v := validationError{}
		v.add("body", "must be valid JSON")
		return v
	}
	return nil
}

type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DeviceToken string `json:"device_token,omitempty"`
}

func (req loginRequest) Validate() error {
	v := validationError{}
	if req.Email == "" {
		v.add("email", "is required")
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		v.add("email", "must be a valid email address")
	}
	if req.Password == "" {
		v.add("password", "is required")
	}
	if len(v) > 0 {
		return v
	}
	return nil
}

type secondFactorRequest struct {
	TempToken      string `json:"temp_token"`
	Code           string `json:"code"`
	RememberDevice bool   `json:"remember_device,omitempty"`
}

func (req secondFactorRequest) Validate() error {
	v := validationError{}
	if req.TempToken == "" {
		v.add("temp_token", "is required")
	}
	if req.Code == "" {
		v.add("code", "is required")
	}
	if len(v) > 0 {
		return v
	}
	return nil
}

type enableRequest struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

func (req enableRequest) Validate() error {
	v := validationError{}
	if req.Code == "" {
		v.add("code", "is required")
	}
	if req.Password == "" {
		v.add("password", "is required")
	}
	if len(v) > 0 {
		return v
	}
	return nil
}

type disableRequest struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

func (req disableRequest) Validate() error {
	return enableRequest(req).Validate()
}
