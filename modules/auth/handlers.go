package auth

import (
	"net/http"

	svcauth "github.com/servercraft/authkit/svc/auth"
)

func (m *module) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	result, err := m.login.Login(r.Context(), svcauth.LoginRequest{
		Email:       req.Email,
		Password:    req.Password,
		DeviceToken: req.DeviceToken,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, result)
}

func (m *module) handleLoginSecondFactor(w http.ResponseWriter, r *http.Request) {
	var req secondFactorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	result, err := m.login.VerifySecondFactor(r.Context(), svcauth.SecondFactorRequest{
		TempToken:      req.TempToken,
		Code:           req.Code,
		RememberDevice: req.RememberDevice,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, result)
}

func (m *module) handleSetup(w http.ResponseWriter, r *http.Request) {
	// The body is optional here; account_name defaults to the identity ID.
	var req struct {
		AccountName string `json:"account_name"`
	}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
	}

	id := identityID(r)
	accountName := req.AccountName
	if accountName == "" {
		accountName = id
	}

	result, err := m.twoFactor.Setup(r.Context(), id, accountName)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, result)
}

func (m *module) handleEnable(w http.ResponseWriter, r *http.Request) {
	var req enableRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	if err := m.twoFactor.Enable(r.Context(), identityID(r), req.Code, req.Password); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, map[string]bool{"enabled": true})
}

func (m *module) handleDisable(w http.ResponseWriter, r *http.Request) {
	var req disableRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	if err := m.twoFactor.Disable(r.Context(), identityID(r), req.Code, req.Password); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, map[string]bool{"enabled": false})
}

func (m *module) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := m.twoFactor.Status(r.Context(), identityID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, status)
}

func (m *module) handleRegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := m.twoFactor.RegenerateBackupCodes(r.Context(), identityID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, map[string]any{"backup_codes": codes})
}

func (m *module) handleRevokeDevices(w http.ResponseWriter, r *http.Request) {
	count, err := m.twoFactor.Devices().RevokeAll(r.Context(), identityID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, map[string]int{"revoked": count})
}
