package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/mkovacic/portfolio/internal/telemetry/metrics"
	"github.com/mkovacic/portfolio/internal/telemetry/tracing"
	"github.com/mkovacic/portfolio/pkg"
)

type contactRepo interface {
	Add(ctx context.Context, message *Message) error
	All(ctx context.Context) ([]*Message, error)
	AllByStatus(ctx context.Context, status string) ([]*Message, error)
	Get(ctx context.Context, id int) (*Message, error)
	UpdateStatus(ctx context.Context, id int, status string) (*Message, error)
	Delete(ctx context.Context, id int) error
}

// Notifier gets told about new contact messages. Notification failures
// never fail the submission.
type Notifier interface {
	NewContactMessage(ctx context.Context, message *Message) error
}

// LogNotifier just logs new messages. Stands in until an email or
// webhook notifier is configured.
type LogNotifier struct{}

func (n LogNotifier) NewContactMessage(_ context.Context, message *Message) error {
	log.Infof("new contact message %d from %s <%s>", message.ID, message.Name, message.Email)
	return nil
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type Handler struct {
	repo           contactRepo
	notifier       Notifier
	metricsManager *metrics.Manager
}

func NewHandler(repo contactRepo, notifier Notifier, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		notifier:       notifier,
		metricsManager: metricsManager,
	}
}

// SetupRoutes mounts the contact endpoints. The submit endpoint gets its
// own rate limiter on top of the general API one.
func (handler *Handler) SetupRoutes(router *mux.Router, submitRateLimit mux.MiddlewareFunc) {
	submitRouter := router.PathPrefix("/contact").Methods("POST", "OPTIONS").Subrouter()
	submitRouter.Use(submitRateLimit)
	submitRouter.HandleFunc("", handler.handleSubmit).Name("contact-submit")

	router.HandleFunc("/contact", handler.handleList).Methods("GET").Name("contact-list")
	router.HandleFunc("/contact/{id}", handler.handleGet).Methods("GET").Name("contact-get")
	router.HandleFunc("/contact/{id}/status", handler.handleUpdateStatus).Methods("PATCH", "OPTIONS").Name("contact-update-status")
	router.HandleFunc("/contact/{id}", handler.handleDelete).Methods("DELETE", "OPTIONS").Name("contact-delete")
}

func (handler *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "contact.submit")
	defer span.End()

	var message Message
	if err := json.NewDecoder(r.Body).Decode(&message); err != nil {
		log.Errorf("contact submit, unmarshal json params: %s", err)
		pkg.WriteAPIError(w, "Failed to send message. Please try again.", http.StatusBadRequest)
		return
	}

	if validationErr := message.validate(); validationErr != "" {
		pkg.WriteAPIError(w, validationErr, http.StatusBadRequest)
		return
	}

	message.Status = StatusNew
	if ip, err := pkg.ReadUserIP(r); err == nil {
		message.IPAddress = ip
	}

	if err := handler.repo.Add(ctx, &message); err != nil {
		log.Errorf("save contact message: %s", err)
		pkg.WriteAPIError(w, "Failed to send message. Please try again.", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterContactMessages.Inc()

	if err := handler.notifier.NewContactMessage(ctx, &message); err != nil {
		log.Errorf("contact message %d notification: %s", message.ID, err)
	}

	pkg.WriteAPIJSON(w, messageResponse{
		Success: true,
		Message: "Message sent successfully! I'll get back to you soon.",
	}, http.StatusCreated)
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "contact.list")
	defer span.End()

	status := r.URL.Query().Get("status")
	if status != "" && !ValidStatus(status) {
		pkg.WriteAPIError(w, "Invalid status", http.StatusBadRequest)
		return
	}

	var messages []*Message
	var err error
	if status == "" {
		messages, err = handler.repo.All(ctx)
	} else {
		messages, err = handler.repo.AllByStatus(ctx, status)
	}
	if err != nil {
		log.Errorf("get contacts: %s", err)
		pkg.WriteAPIError(w, "Failed to fetch contacts", http.StatusInternalServerError)
		return
	}

	if messages == nil {
		messages = []*Message{}
	}

	pkg.WriteAPIData(w, messages, http.StatusOK)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "contact.get")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteAPIError(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	message, err := handler.repo.Get(ctx, id)
	if errors.Is(err, ErrMessageNotFound) {
		pkg.WriteAPIError(w, "Contact not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get contact %d: %s", id, err)
		pkg.WriteAPIError(w, "Failed to fetch contact", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, message, http.StatusOK)
}

func (handler *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "PATCH, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "contact.updateStatus")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteAPIError(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	var statusReq updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&statusReq); err != nil {
		log.Errorf("update contact status, unmarshal json params: %s", err)
		pkg.WriteAPIError(w, "Invalid status", http.StatusBadRequest)
		return
	}

	if !ValidStatus(statusReq.Status) {
		pkg.WriteAPIError(w, "Invalid status", http.StatusBadRequest)
		return
	}

	message, err := handler.repo.UpdateStatus(ctx, id, statusReq.Status)
	if errors.Is(err, ErrMessageNotFound) {
		pkg.WriteAPIError(w, "Contact not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("update contact %d status: %s", id, err)
		pkg.WriteAPIError(w, "Failed to update contact", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, message, http.StatusOK)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "DELETE, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "contact.delete")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteAPIError(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			pkg.WriteAPIError(w, "Contact not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete contact %d: %s", id, err)
		pkg.WriteAPIError(w, "Failed to delete contact", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIJSON(w, messageResponse{
		Success: true,
		Message: "Contact deleted successfully",
	}, http.StatusOK)
}
