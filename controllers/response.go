package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"luxvision/logger"
	"luxvision/middleware"
	"luxvision/models"
)

var (
	errInvalidBody      = &models.Error{Code: models.EInvalid, Msg: "Données invalides"}
	errNotAuthenticated = &models.Error{Code: models.EUnauthorized, Msg: "Non authentifié"}
)

// envelope is the body of every API response.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// writeJSON encodes a successful response.
func writeJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Message: message, Data: data})
}

// ErrorHandler renders errors as JSON envelopes.
type ErrorHandler struct {
	log *zap.Logger
	// Detailed adds the internal error text to responses. Off in production.
	Detailed bool
}

// NewErrorHandler returns an ErrorHandler logging internal errors to log.
func NewErrorHandler(log *zap.Logger, detailed bool) *ErrorHandler {
	return &ErrorHandler{log: log, Detailed: detailed}
}

var statusCodes = map[string]int{
	models.EInvalid:      http.StatusBadRequest,
	models.EUnauthorized: http.StatusUnauthorized,
	models.EForbidden:    http.StatusForbidden,
	models.ENotFound:     http.StatusNotFound,
	models.EConflict:     http.StatusConflict,
	models.ETooLarge:     http.StatusRequestEntityTooLarge,
	models.EInternal:     http.StatusInternalServerError,
}

// HandleHTTPError writes err with the status matching its code.
func (h *ErrorHandler) HandleHTTPError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	code := models.ErrorCode(err)
	status, ok := statusCodes[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		logger.FromContextOr(r.Context(), h.log).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}

	body := envelope{Message: models.ErrorMessage(err)}
	if h.Detailed {
		body.Error = err.Error()
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// NotFound answers requests matching no route.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.HandleHTTPError(w, r, &models.Error{
		Code: models.ENotFound,
		Msg:  "Route " + r.Method + " " + r.URL.Path + " non trouvée",
	})
}

// MethodNotAllowed answers known paths called with another method. The API
// reports them like unknown routes.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.NotFound(w, r)
}

// decode reads the JSON body of r into v.
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if middleware.IsBodyTooLarge(err) {
			return middleware.ErrBodyTooLarge
		}
		if errors.Is(err, io.EOF) {
			return errInvalidBody
		}
		return &models.Error{Code: models.EInvalid, Msg: errInvalidBody.Msg, Err: err}
	}
	return nil
}

// currentUser returns the account authenticated by the middleware.
func currentUser(r *http.Request) (*models.User, error) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return nil, errNotAuthenticated
	}
	return u, nil
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// queryInt parses an optional integer query parameter. Malformed values fall back to def.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
