package authsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mfeller/gameauth/internal/domain"
	context_ "github.com/mfeller/gameauth/internal/infra/context"
	"github.com/mfeller/gameauth/internal/infra/logging"
	http_ "github.com/mfeller/gameauth/internal/infra/transport/http"
)

// User-facing error strings. These are rendered verbatim by clients, so they
// are part of the wire contract.
const (
	msgUserExists       = "User already exists"
	msgPasswordMismatch = "Passwords don't match."
	msgMissingFields    = "Please fill all Fields."
	msgNoUserFound      = "No user found."
	msgBanned           = "You are banned."
	msgMalformedPayload = "Invalid data payload."
	msgInternalError    = "Internal server error."
)

// emptyData is the data placeholder on failed login responses, kept as an
// empty JSON string for clients that bind the field unconditionally.
var emptyData = json.RawMessage(`""`)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// HTTPTransport handles HTTP requests for the authentication service.
// Requests are form-encoded POSTs; responses are JSON bodies carrying a
// success flag and a user-facing error string. Domain outcomes such as a
// duplicate user, wrong credentials, a ban, or a bad payload are always
// HTTP 200; only
// store or encoding failures surface as HTTP 500.
type HTTPTransport struct {
	authSvc *AuthService
	log     logging.Logger
	cfg     HTTPTransportConfig
}

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
// It requires an AuthService for handling authentication operations.
func NewHTTPTransport(
	authSvc *AuthService,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	return &HTTPTransport{
		authSvc: authSvc,
		log:     logging.GetLogger("svc.authsvc.http_transport"),
		cfg:     cfg,
	}
}

// ServeHTTP implements http.Handler and sets up routes for the auth service endpoints:
// - GET /: liveness probe
// - POST /register: create a new account
// - POST /login: authenticate and receive a session token
// - POST /save: persist the account's data payload.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", ht.HandleHealth)
	mux.HandleFunc("POST /register", ht.HandleRegister)
	mux.HandleFunc("POST /login", ht.HandleLogin)
	mux.HandleFunc("POST /save", ht.HandleSave)
	mux.ServeHTTP(w, r)
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// HandleHealth reports liveness. The body is the historical banner string
// that clients probe for.
func (ht *HTTPTransport) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("yeeeh"))
}

// HandleRegister processes account registration requests.
// Expects form parameters: username, password, passwordrepeat, project.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "register request failed", "error", err)
		} else {
			log.DebugContext(ctx, "register request handled")
		}
	}(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("parse form: %w", err)
	}

	regErr := ht.authSvc.Register(r.Context(),
		r.FormValue("username"),
		r.FormValue("password"),
		r.FormValue("passwordrepeat"),
		r.FormValue("project"),
	)

	resp := domain.RegisterResponse{Success: true, Error: ""}

	switch {
	case regErr == nil:
	case errors.Is(regErr, domain.ErrPasswordMismatch):
		resp = domain.RegisterResponse{Success: false, Error: msgPasswordMismatch}
	case errors.Is(regErr, domain.ErrMissingFields):
		resp = domain.RegisterResponse{Success: false, Error: msgMissingFields}
	case errors.Is(regErr, domain.ErrAccountExists):
		resp = domain.RegisterResponse{Success: false, Error: msgUserExists}
	default:
		ht.sendJSON(w, domain.RegisterResponse{Success: false, Error: msgInternalError}, http.StatusInternalServerError)

		return fmt.Errorf("register: %w", regErr)
	}

	ht.sendJSON(w, resp, http.StatusOK)

	return nil
}

// HandleLogin processes login requests.
// Expects form parameters: username, password, project, version.
// Returns the account ID, a fresh session token and the saved data payload.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogin(w, r)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	var (
		ctx = r.Context()
		log = ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))
	)

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "login request failed", "error", err)
		} else {
			log.DebugContext(ctx, "login request handled")
		}
	}()

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("parse form: %w", err)
	}

	if version := r.FormValue("version"); version != "" {
		log = log.With(logging.Group("client", "version", version))
	}

	session, loginErr := ht.authSvc.Login(ctx,
		r.FormValue("username"),
		r.FormValue("password"),
		r.FormValue("project"),
	)

	switch {
	case loginErr == nil:
	case errors.Is(loginErr, domain.ErrAccountNotFound):
		ht.sendJSON(w, domain.LoginResponse{
			ID:      "",
			Session: "",
			Data:    emptyData,
			Success: false,
			Error:   msgNoUserFound,
		}, http.StatusOK)

		return nil
	case errors.Is(loginErr, domain.ErrAccountBanned):
		ht.sendJSON(w, domain.LoginResponse{
			ID:      "",
			Session: "",
			Data:    emptyData,
			Success: false,
			Error:   msgBanned,
			Banned:  true,
		}, http.StatusOK)

		return nil
	default:
		ht.sendJSON(w, domain.LoginResponse{
			Data:    emptyData,
			Success: false,
			Error:   msgInternalError,
		}, http.StatusInternalServerError)

		return fmt.Errorf("login: %w", loginErr)
	}

	// Attribute the completion log to the authenticated account
	ctx = context_.WithAccountID(ctx, session.AccountID)

	ht.sendJSON(w, domain.LoginResponse{
		ID:      session.AccountID,
		Session: session.Token,
		Data:    session.Data,
		Success: true,
		Error:   "",
	}, http.StatusOK)

	return nil
}

// HandleSave processes data persistence requests.
// Expects form parameters: id, session, data (a JSON document).
func (ht *HTTPTransport) HandleSave(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleSave(w, r)
}

func (ht *HTTPTransport) handleSave(w http.ResponseWriter, r *http.Request) (err error) {
	var (
		ctx = r.Context()
		log = ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))
	)

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "save request failed", "error", err)
		} else {
			log.DebugContext(ctx, "save request handled")
		}
	}()

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("parse form: %w", err)
	}

	id := r.FormValue("id")

	saveErr := ht.authSvc.Save(ctx,
		id,
		r.FormValue("session"),
		json.RawMessage(r.FormValue("data")),
	)

	resp := domain.SaveResponse{Success: true, Error: ""}

	switch {
	case saveErr == nil:
		ctx = context_.WithAccountID(ctx, id)
	case errors.Is(saveErr, domain.ErrMissingFields):
		resp = domain.SaveResponse{Success: false, Error: msgMissingFields}
	case errors.Is(saveErr, domain.ErrMalformedPayload):
		resp = domain.SaveResponse{Success: false, Error: msgMalformedPayload}
	case errors.Is(saveErr, domain.ErrAccountNotFound):
		resp = domain.SaveResponse{Success: false, Error: msgNoUserFound}
	default:
		ht.sendJSON(w, domain.SaveResponse{Success: false, Error: msgInternalError}, http.StatusInternalServerError)

		return fmt.Errorf("save: %w", saveErr)
	}

	ht.sendJSON(w, resp, http.StatusOK)

	return nil
}

// sendJSON writes a JSON response body with the given status code.
func (ht *HTTPTransport) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		ht.log.Error("failed to encode JSON response", "error", err)
	}
}
