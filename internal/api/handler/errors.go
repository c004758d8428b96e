package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/middleware"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/response"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// writeError maps domain errors to HTTP status codes
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		if middleware.GetRequester(r.Context()) == nil {
			response.Unauthorized(w, err.Error())
			return
		}
		response.Forbidden(w, err.Error())
	case errors.Is(err, domain.ErrUnsupportedBackend), errors.Is(err, domain.ErrInvalidInput):
		response.BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrCorpusEmpty):
		response.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrBuildInProgress):
		response.Conflict(w, err.Error())
	case errors.Is(err, domain.ErrEmbeddingProvider), errors.Is(err, domain.ErrRetrievalBackend):
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Upstream provider failed")
		response.Error(w, http.StatusBadGateway, err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		response.InternalError(w, "internal server error")
	}
}

// decode reads a JSON body into v and validates it. It writes the error
// response and returns false on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "invalid request body")
		return false
	}

	if err := validate.Struct(v); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			errs := make(map[string]string)
			for _, e := range validationErrors {
				field := e.Field()
				tag := e.Tag()
				switch tag {
				case "required":
					errs[field] = "field is required"
				case "email":
					errs[field] = "invalid email format"
				case "min":
					errs[field] = "must be at least " + e.Param()
				case "max":
					errs[field] = "must be at most " + e.Param()
				case "oneof":
					errs[field] = "must be one of: " + e.Param()
				default:
					errs[field] = "validation failed on " + tag
				}
			}
			response.BadRequest(w, errs)
			return false
		}
		response.BadRequest(w, err.Error())
		return false
	}
	return true
}

// urlID parses a UUID path parameter, writing 400 when it is malformed
func urlID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.BadRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
