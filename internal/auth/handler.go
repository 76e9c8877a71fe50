package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkovacic/portfolio/internal/telemetry/metrics"
	"github.com/mkovacic/portfolio/internal/telemetry/tracing"
	"github.com/mkovacic/portfolio/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type Handler struct {
	verifier       *Verifier
	codec          *TokenCodec
	metricsManager *metrics.Manager
}

func NewHandler(
	verifier *Verifier,
	codec *TokenCodec,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		verifier:       verifier,
		codec:          codec,
		metricsManager: metricsManager,
	}
}

// SetupRoutes mounts the login endpoint. The endpoint gets its own, stricter
// admission window on top of the general API one, to blunt credential guessing.
func (handler *Handler) SetupRoutes(apiRouter *mux.Router, loginRateLimit mux.MiddlewareFunc) {
	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/login", handler.handleLogin).Methods("POST", "OPTIONS").Name("login")
	authRouter.Use(loginRateLimit)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	ExpiresIn string `json:"expiresIn"`
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	handler.metricsManager.CounterLoginAttempts.Inc()

	var loginReq loginRequest
	if r.Header.Get("Content-Type") == pkg.ContentType.JSON {
		if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
			log.Errorf("login, unmarshal json params: %s", err)
			span.SetStatus(codes.Error, "bad-request")
			pkg.WriteAPIError(w, "Username and password are required", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("login failed, parse form error: %s", err)
			span.SetStatus(codes.Error, "bad-request")
			pkg.WriteAPIError(w, "Login failed", http.StatusInternalServerError)
			return
		}
		loginReq = loginRequest{
			Username: r.Form.Get("username"),
			Password: r.Form.Get("password"),
		}
	}

	if loginReq.Username == "" || loginReq.Password == "" {
		span.SetStatus(codes.Error, "missing-fields")
		pkg.WriteAPIError(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	credentialsOK, err := handler.verifier.Verify(loginReq.Username, loginReq.Password)
	if err != nil {
		span.SetStatus(codes.Error, "verify-err")
		span.RecordError(err)
		if errors.Is(err, ErrNotConfigured) {
			log.Error("login failed: admin credentials not configured")
			pkg.WriteAPIError(w, "Server configuration error", http.StatusInternalServerError)
			return
		}
		log.Errorf("login failed, verify credentials: %s", err)
		pkg.WriteAPIError(w, "Login failed", http.StatusInternalServerError)
		return
	}
	if !credentialsOK {
		// same outcome for a wrong username and a wrong password
		log.Tracef("failed login attempt for user: %s", loginReq.Username)
		span.SetStatus(codes.Error, "invalid-credentials")
		pkg.WriteAPIError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := handler.codec.Issue(loginReq.Username, RoleAdmin)
	if err != nil {
		span.SetStatus(codes.Error, "issue-token-err")
		span.RecordError(err)
		if errors.Is(err, ErrNoSigningSecret) {
			log.Error("login failed: token signing secret not configured")
			pkg.WriteAPIError(w, "Server configuration error", http.StatusInternalServerError)
			return
		}
		log.Errorf("login failed, issue token: %s", err)
		pkg.WriteAPIError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	log.Trace("new login success")
	span.SetStatus(codes.Ok, "ok")
	pkg.WriteAPIJSON(w, loginResponse{
		Success:   true,
		Token:     token,
		ExpiresIn: "24h",
	}, http.StatusOK)
}
