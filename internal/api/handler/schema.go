package handler

import (
	"time"

	"github.com/99minutos/account-dashboard/internal/core/domain"
	"github.com/99minutos/account-dashboard/internal/core/service"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type registerRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type editFieldRequest struct {
	Field string `json:"field" validate:"required,oneof=firstName lastName email"`
	Value string `json:"value" validate:"max=100"`
}

// --- Response types ---

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type tokenResponse struct {
	Token   string          `json:"token"`
	Session sessionResponse `json:"session"`
}

type sessionStateResponse struct {
	Status  string           `json:"status"`
	Session *sessionResponse `json:"session,omitempty"`
}

type viewResponse struct {
	Wait     bool   `json:"wait"`
	Redirect bool   `json:"redirect"`
	View     string `json:"view"`
}

type profileResponse struct {
	ID        string    `json:"id"`
	FirstName *string   `json:"first_name"`
	LastName  *string   `json:"last_name"`
	Email     *string   `json:"email"`
	UpdatedAt time.Time `json:"updated_at"`
}

type syncStateResponse struct {
	Status  string           `json:"status"`
	Reason  string           `json:"reason,omitempty"`
	Profile *profileResponse `json:"profile,omitempty"`
}

type editResponse struct {
	State       string `json:"state"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	LastFailure string `json:"last_failure,omitempty"`
}

type notificationResponse struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Cause   string    `json:"cause,omitempty"`
	At      time.Time `json:"at"`
}

type notificationsResponse struct {
	Notifications []notificationResponse `json:"notifications"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Mappers ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		Email:     s.Email,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

func toSessionStateResponse(snap service.SessionSnapshot) sessionStateResponse {
	out := sessionStateResponse{Status: snap.Status.String()}
	if snap.Session != nil {
		s := toSessionResponse(snap.Session)
		out.Session = &s
	}
	return out
}

func toSyncStateResponse(st domain.SyncState) syncStateResponse {
	out := syncStateResponse{Status: string(st.Status), Reason: string(st.Reason)}
	if p := st.Profile; p != nil {
		out.Profile = &profileResponse{
			ID:        p.ID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Email:     p.Email,
			UpdatedAt: p.UpdatedAt,
		}
	}
	return out
}

func toEditResponse(v service.EditView) editResponse {
	return editResponse{
		State:       string(v.State),
		FirstName:   v.Draft.FirstName,
		LastName:    v.Draft.LastName,
		LastFailure: string(v.LastFailure),
	}
}

func toNotificationsResponse(ns []domain.Notification) notificationsResponse {
	out := notificationsResponse{Notifications: make([]notificationResponse, 0, len(ns))}
	for _, n := range ns {
		out.Notifications = append(out.Notifications, notificationResponse{
			Kind:    string(n.Kind),
			Message: n.Message,
			Cause:   string(n.Cause),
			At:      n.At,
		})
	}
	return out
}
