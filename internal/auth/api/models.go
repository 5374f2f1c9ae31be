package authapi

import (
	"strings"

	"github.com/HeoSeonJin0504/qureka-server/internal/auth/session"
	"github.com/HeoSeonJin0504/qureka-server/internal/identity"
)

// Client-facing vocabulary is camelCase; storage stays snake_case. The
// translation happens here and only here.

type registerRequest struct {
	UserID   string `json:"userid"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	UserID     string `json:"userid"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userid"`
}

type userPayload struct {
	ID     string `json:"id"`
	UserID string `json:"userid"`
	Name   string `json:"name"`
}

type registerResponse struct {
	User userPayload `json:"user"`
}

type loginResponse struct {
	User         userPayload `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	RememberMe   bool        `json:"rememberMe"`
	Warning      string      `json:"warning,omitempty"`
}

type refreshResponse struct {
	User        userPayload `json:"user"`
	AccessToken string      `json:"accessToken"`
}

type verifyResponse struct {
	User userPayload `json:"user"`
}

func userFromIdentity(id session.Identity) userPayload {
	return userPayload{ID: id.UserID, UserID: id.LoginName, Name: id.DisplayName}
}

func userFromRecord(u identity.User) userPayload {
	return userPayload{ID: u.ID, UserID: u.LoginName, Name: u.DisplayName}
}

func (r registerRequest) validate() string {
	switch {
	case strings.TrimSpace(r.UserID) == "":
		return "userid is required"
	case strings.TrimSpace(r.Name) == "":
		return "name is required"
	case r.Password == "":
		return "password is required"
	}
	return ""
}

func (r loginRequest) validate() string {
	switch {
	case strings.TrimSpace(r.UserID) == "":
		return "userid is required"
	case r.Password == "":
		return "password is required"
	}
	return ""
}
