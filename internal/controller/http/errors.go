package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	analytics "github.com/vadim/socialops/internal/domain/analytics/entity"
	content "github.com/vadim/socialops/internal/domain/content/entity"
	platform "github.com/vadim/socialops/internal/domain/platform/entity"
	queue "github.com/vadim/socialops/internal/domain/queue/entity"
	"github.com/vadim/socialops/internal/httpx/response"
)

var validate = validator.New()

// decodeJSON decodes the request body into v and runs its validate tags
func decodeJSON(r *http.Request, v interface{}) error {
	if err := readJSON(r, v); err != nil {
		return err
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s is %s", verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	return nil
}

// readJSON decodes the request body without validating struct tags
func readJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid JSON")
	}
	return nil
}

// rowParam reads the {row} URL parameter
func rowParam(r *http.Request) (int, error) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		return 0, errors.New("row must be an integer")
	}
	return row, nil
}

// handleDomainError maps domain errors to HTTP status codes
func handleDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		unknown       *platform.UnknownPlatformError
		notConfigured *platform.NotConfiguredError
		publish       *platform.PublishError
		generation    *content.GenerationError
	)

	switch {
	case errors.Is(err, queue.ErrItemNotFound), errors.Is(err, analytics.ErrRecordNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, analytics.ErrAmbiguousPostID):
		response.Conflict(w, err.Error())
	case errors.As(err, &unknown),
		errors.Is(err, queue.ErrInvalidRow), errors.Is(err, queue.ErrInvalidStatus),
		errors.Is(err, queue.ErrNoDraftColumn), errors.Is(err, queue.ErrEmptySchedule),
		errors.Is(err, content.ErrEmptyTopic), errors.Is(err, content.ErrNoPlatforms),
		errors.Is(err, content.ErrInvalidBrandVoice), errors.Is(err, platform.ErrEmptyText),
		errors.Is(err, analytics.ErrEmptyPostID):
		response.BadRequest(w, err.Error())
	case errors.As(err, &notConfigured):
		response.UnprocessableEntity(w, err.Error())
	case errors.Is(err, content.ErrNoCompleter):
		response.ServiceUnavailable(w, err.Error())
	case errors.As(err, &generation) && generation.Stage == "parse":
		response.UnprocessableEntity(w, err.Error())
	case errors.As(err, &publish), errors.As(err, &generation):
		response.BadGateway(w, err.Error())
	default:
		logger.Error("request failed", "error", err)
		response.InternalError(w, "internal server error")
	}
}
