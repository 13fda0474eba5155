package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"aecoin-store-api/internal/billplz"
	"aecoin-store-api/internal/repository"
	"aecoin-store-api/internal/service"
	"aecoin-store-api/pkg/apierror"
	"aecoin-store-api/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) *apierror.Error {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierror.BadRequest("request body is required")
		}
		return apierror.BadRequest("invalid request body")
	}

	return validateStruct(dst)
}

func validateStruct(v interface{}) *apierror.Error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierror.BadRequest("invalid request")
	}

	details := make([]apierror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, apierror.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return apierror.ValidationError("invalid request", details...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}

// writeError maps service and gateway errors to API errors. Anything
// unrecognised is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	response.Error(w, toAPIError(logger, err))
}

func toAPIError(logger *zap.Logger, err error) *apierror.Error {
	var apiErr *apierror.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case billplz.IsSignatureError(err):
		return apierror.Forbidden("invalid signature")
	case billplz.IsConfigurationError(err):
		logger.Error("payment gateway not configured", zap.Error(err))
		return apierror.InternalError("")
	case billplz.IsIntegrationError(err):
		logger.Error("payment gateway error", zap.Error(err))
		return apierror.BadGateway("payment gateway error")
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrMissingBillID),
		errors.Is(err, service.ErrPackageInactive):
		return apierror.BadRequest(err.Error())
	case errors.Is(err, service.ErrPackageNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrUnknownBill),
		errors.Is(err, service.ErrRankingNotFound),
		errors.Is(err, service.ErrHeroNotFound):
		return apierror.NotFound(err.Error())
	case errors.Is(err, service.ErrOrderNotFulfilled):
		return apierror.Conflict(err.Error())
	case errors.Is(err, service.ErrInvalidSession):
		return apierror.Unauthorized("Invalid or expired token")
	case errors.Is(err, repository.ErrDuplicate):
		return apierror.Conflict("resource already exists")
	default:
		logger.Error("request failed", zap.Error(err))
		return apierror.InternalError("")
	}
}

// idParam parses a positive integer URL parameter.
func idParam(r *http.Request, name string) (int64, *apierror.Error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.BadRequest(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// pagination reads page and limit query parameters.
func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
