package casweb

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/casserver/pkg/authz"
	"github.com/platinummonkey/casserver/pkg/services"
	"github.com/platinummonkey/casserver/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ServerSpanName is the operation name of the span wrapping each request
const ServerSpanName = "cas.http"

// TicketValidator validates the ticket carried by a request and returns the
// resulting model. Ticket handling lives outside this package.
type TicketValidator interface {
	ValidateTicket(r *http.Request) (validation.Model, error)
}

// TicketValidatorFunc adapts a function to TicketValidator
type TicketValidatorFunc func(r *http.Request) (validation.Model, error)

// ValidateTicket calls f(r)
func (f TicketValidatorFunc) ValidateTicket(r *http.Request) (validation.Model, error) {
	return f(r)
}

// ProtocolError is a validation failure reported to the calling service
type ProtocolError struct {
	Code        validation.FailureCode
	Description string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// QueryServiceExtractor reads the service from the "service" query parameter
func QueryServiceExtractor(r *http.Request) *services.Service {
	id := r.URL.Query().Get("service")
	if id == "" {
		return nil
	}
	return services.NewService(id)
}

// Config wires a Server
type Config struct {
	Check     *authz.Check
	Builder   *validation.ResponseBuilder
	Validator TicketValidator
	Extract   ServiceExtractor // Defaults to QueryServiceExtractor
	Login     http.Handler     // Serves admitted login requests
	Logger    *logrus.Logger
}

// Server exposes the login admission check and the service validation endpoints
type Server struct {
	check     *authz.Check
	builder   *validation.ResponseBuilder
	validator TicketValidator
	extract   ServiceExtractor
	login     http.Handler
	log       *logrus.Logger
}

// NewServer creates a new server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Check == nil {
		return nil, errors.New("admission check is required")
	}
	if cfg.Builder == nil {
		return nil, errors.New("response builder is required")
	}
	if cfg.Validator == nil {
		return nil, errors.New("ticket validator is required")
	}

	s := &Server{
		check:     cfg.Check,
		builder:   cfg.Builder,
		validator: cfg.Validator,
		extract:   cfg.Extract,
		login:     cfg.Login,
		log:       cfg.Logger,
	}
	if s.extract == nil {
		s.extract = QueryServiceExtractor
	}
	if s.login == nil {
		s.login = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	}
	if s.log == nil {
		s.log = logrus.New()
	}

	return s, nil
}

// RegisterRoutes registers the CAS routes on router.
// Each matched request runs inside a server span from the global tracer provider.
func (s *Server) RegisterRoutes(router *mux.Router) {
	router.Use(
		otelhttp.NewMiddleware(ServerSpanName, otelhttp.WithSpanNameFormatter(routeSpanName)),
		RequestIDMiddleware(s.log),
		LoggingMiddleware,
		RecoveryMiddleware(s.builder),
	)

	login := router.Path("/login").Subrouter()
	login.Use(ServiceAccessMiddleware(s.check, s.extract, s.builder))
	login.Methods(http.MethodGet, http.MethodPost).Handler(s.login)

	router.HandleFunc("/serviceValidate", s.handleServiceValidate).Methods(http.MethodGet)
	router.HandleFunc("/p3/serviceValidate", s.handleServiceValidate).Methods(http.MethodGet)
}

// Handler returns a router with all routes registered
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	s.RegisterRoutes(router)
	return router
}

// routeSpanName names a server span after the matched route template
func routeSpanName(operation string, r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return r.Method + " " + tpl
		}
	}
	return operation
}

func (s *Server) handleServiceValidate(w http.ResponseWriter, r *http.Request) {
	model, err := s.validator.ValidateTicket(r)
	if err != nil {
		var protoErr *ProtocolError
		if errors.As(err, &protoErr) {
			WriteFailure(w, r, s.builder, http.StatusOK, protoErr.Code, protoErr.Description)
			return
		}
		loggerFrom(r.Context()).WithError(err).Error("ticket validation failed")
		WriteFailure(w, r, s.builder, http.StatusInternalServerError, validation.FailureInternalError,
			"Ticket validation could not be completed")
		return
	}

	WriteSuccess(w, r, s.builder, model)
}
