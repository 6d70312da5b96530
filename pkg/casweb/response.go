package casweb

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/casserver/pkg/authz"
	"github.com/platinummonkey/casserver/pkg/observability"
	"github.com/platinummonkey/casserver/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ContentTypeXML is the content type of every protocol response
const ContentTypeXML = "application/xml; charset=UTF-8"

// WriteXML writes an XML body with the given status code
func WriteXML(w http.ResponseWriter, status int, body []byte) error {
	w.Header().Set("Content-Type", ContentTypeXML)
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}

// WriteSuccess builds the success response for model and writes it.
// Model errors become an INVALID_REQUEST failure; a marshal failure becomes
// a 500 with INTERNAL_ERROR.
func WriteSuccess(w http.ResponseWriter, r *http.Request, builder *validation.ResponseBuilder, model validation.Model) {
	ctx, span := observability.Tracer().Start(r.Context(), "cas.validation.write")
	defer span.End()

	log := loggerFrom(ctx)

	body, err := builder.Build(model)
	switch {
	case err == nil:
		span.SetAttributes(attribute.String("cas.response.result", "success"))
		if err := WriteXML(w, http.StatusOK, body); err != nil {
			log.WithError(err).Warn("failed to write service response")
		}

	case errors.Is(err, validation.ErrMarshalFailure):
		span.RecordError(err)
		span.SetStatus(codes.Error, "marshal failure")
		span.SetAttributes(attribute.String("cas.response.result", "marshal_failure"))
		log.WithError(err).Error("failed to marshal service response")
		WriteFailure(w, r, builder, http.StatusInternalServerError, validation.FailureInternalError,
			"The service response could not be produced")

	default:
		span.SetAttributes(attribute.String("cas.response.result", "invalid_model"))
		log.WithError(err).Warn("rejected invalid validation model")
		WriteFailure(w, r, builder, http.StatusOK, validation.FailureInvalidRequest, err.Error())
	}
}

// WriteFailure writes a protocol failure. When the failure body itself
// cannot be built, a plain-text 500 is written instead.
func WriteFailure(w http.ResponseWriter, r *http.Request, builder *validation.ResponseBuilder, status int, code validation.FailureCode, description string) {
	body, err := builder.BuildFailure(code, description)
	if err != nil {
		loggerFrom(r.Context()).WithError(err).Error("failed to build failure response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := WriteXML(w, status, body); err != nil {
		loggerFrom(r.Context()).WithError(err).Warn("failed to write failure response")
	}
}

// WriteAuthorizationFailure turns an admission denial into a response:
// a 302 to the unauthorized redirect URL when one is known, otherwise an
// INVALID_SERVICE protocol failure.
func WriteAuthorizationFailure(w http.ResponseWriter, r *http.Request, builder *validation.ResponseBuilder, err error) {
	var denial *authz.UnauthorizedServiceError
	if !errors.As(err, &denial) {
		loggerFrom(r.Context()).WithError(err).Error("unexpected admission error")
		WriteFailure(w, r, builder, http.StatusInternalServerError, validation.FailureInternalError,
			"Service access could not be determined")
		return
	}

	redirect := UnauthorizedRedirectURL(r.Context())
	if redirect == nil {
		redirect = denial.RedirectURL
	}
	if redirect != nil {
		http.Redirect(w, r, redirect.String(), http.StatusFound)
		return
	}

	WriteFailure(w, r, builder, http.StatusOK, validation.FailureCode(denial.ProtocolFailureCode()), denial.Message)
}
