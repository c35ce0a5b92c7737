package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"horizon/internal/core/domain"
	"horizon/internal/core/services"
)

const sessionCookieName = "session-token"

// userService is the slice of services.UserService the handlers need.
type userService interface {
	SignUp(ctx context.Context, params services.SignUpParams) (*domain.UserProfile, *domain.Session, error)
	SignIn(ctx context.Context, email, password string) (*domain.UserProfile, *domain.Session, error)
	CurrentUser(ctx context.Context, sessionToken string) (*domain.UserProfile, error)
	Logout(ctx context.Context, sessionToken string) error
}

type linkingService interface {
	CreateLinkToken(ctx context.Context, user *domain.UserProfile) (string, error)
	LinkBankAccount(ctx context.Context, publicToken string, user *domain.UserProfile) (*domain.LinkedBankAccount, error)
}

type bankService interface {
	ListBanks(ctx context.Context, userID string) ([]*domain.LinkedBankAccount, error)
	GetBank(ctx context.Context, id uuid.UUID) (*domain.LinkedBankAccount, error)
}

// Handlers exposes the JSON API. Responses never carry access tokens,
// funding-source URLs or other internal identifiers.
type Handlers struct {
	log     zerolog.Logger
	users   userService
	linking linkingService
	banks   bankService

	// secureCookies is off only in dev, where there is no TLS.
	secureCookies bool
}

// NewHandlers constructs the API handlers.
func NewHandlers(users userService, linking linkingService, banks bankService, secureCookies bool, baseLogger *zerolog.Logger) *Handlers {
	return &Handlers{
		log:           baseLogger.With().Str("component", "api_handlers").Logger(),
		users:         users,
		linking:       linking,
		banks:         banks,
		secureCookies: secureCookies,
	}
}

type profileResponse struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func newProfileResponse(p *domain.UserProfile) profileResponse {
	return profileResponse{
		UserID:    p.UserID,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
	}
}

type bankResponse struct {
	ID         string `json:"id"`
	AccountID  string `json:"accountId"`
	SharableID string `json:"sharableId"`
}

func newBankResponse(b *domain.LinkedBankAccount) bankResponse {
	return bankResponse{
		ID:         b.ID.String(),
		AccountID:  b.AccountID,
		SharableID: b.SharableID,
	}
}

func (h *Handlers) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		Address1    string `json:"address1"`
		City        string `json:"city"`
		State       string `json:"state"`
		PostalCode  string `json:"postalCode"`
		DateOfBirth string `json:"dateOfBirth"`
		SSN         string `json:"ssn"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		writeError(w, http.StatusBadRequest, "email, password, firstName and lastName are required")
		return
	}

	profile, session, err := h.users.SignUp(r.Context(), services.SignUpParams{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Address1:    req.Address1,
		City:        req.City,
		State:       req.State,
		PostalCode:  req.PostalCode,
		DateOfBirth: req.DateOfBirth,
		SSN:         req.SSN,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.setSessionCookie(w, session)
	respondJSON(w, http.StatusCreated, newProfileResponse(profile))
}

func (h *Handlers) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	profile, session, err := h.users.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.setSessionCookie(w, session)
	respondJSON(w, http.StatusOK, newProfileResponse(profile))
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := h.sessionToken(r)
	if token != "" {
		if err := h.users.Logout(r.Context(), token); err != nil {
			h.log.Warn().Err(err).Msg("Logout failed upstream, clearing cookie anyway")
		}
	}
	h.clearSessionCookie(w)
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newProfileResponse(profile))
}

func (h *Handlers) handleLinkToken(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	token, err := h.linking.CreateLinkToken(r.Context(), profile)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"linkToken": token})
}

func (h *Handlers) handleExchange(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		PublicToken string `json:"publicToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PublicToken == "" {
		writeError(w, http.StatusBadRequest, "publicToken is required")
		return
	}

	bank, err := h.linking.LinkBankAccount(r.Context(), req.PublicToken, profile)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, newBankResponse(bank))
}

func (h *Handlers) handleBanks(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	banks, err := h.banks.ListBanks(r.Context(), profile.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	out := make([]bankResponse, 0, len(banks))
	for _, b := range banks {
		out = append(out, newBankResponse(b))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handlers) handleBank(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bank id")
		return
	}

	bank, err := h.banks.GetBank(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if bank == nil || bank.UserID != profile.UserID {
		writeError(w, http.StatusNotFound, "bank not found")
		return
	}
	respondJSON(w, http.StatusOK, newBankResponse(bank))
}

// authenticate resolves the session cookie to the caller's profile,
// writing a 401 when there is no usable session.
func (h *Handlers) authenticate(w http.ResponseWriter, r *http.Request) (*domain.UserProfile, bool) {
	token := h.sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "sign in required")
		return nil, false
	}

	profile, err := h.users.CurrentUser(r.Context(), token)
	if err != nil {
		h.respondError(w, err)
		return nil, false
	}
	return profile, true
}

func (h *Handlers) sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, session *domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Secret,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// respondError maps domain failures to user-safe responses. Linking
// failures never expose step detail or external identifiers; the full
// error, including any reconciliation reference, goes to the log only.
func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	var linkErr *domain.LinkError
	switch {
	case errors.As(err, &linkErr):
		evt := h.log.Error().Err(linkErr.Err).Str("step", string(linkErr.Step))
		if linkErr.NeedsReconciliation() {
			evt = evt.Str("funding_source_url", linkErr.FundingSourceURL).Str("item_id", linkErr.ItemID)
		}
		evt.Msg("Bank linking failed")
		writeError(w, http.StatusBadGateway, "unable to connect bank, please retry")
	case errors.Is(err, domain.ErrNoSession):
		writeError(w, http.StatusUnauthorized, "sign in required")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "an account with this email already exists")
	default:
		h.log.Error().Err(err).Msg("Unhandled error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
