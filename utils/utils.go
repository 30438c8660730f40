package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"chainkpi/models"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

func init() {
	Validate = validator.New()
}

// DecodeAndValidate decodes the request body into a structure and validates it
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		HandleMessageResponse(w, err.Error(), http.StatusBadRequest)
		return err
	}
	if err := Validate.Struct(v); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)

		for _, e := range validationErrors {
			errorMessages[e.Field()] = e.Tag()
		}
		HandleValidationResponse(w, http.StatusBadRequest, errorMessages)
		return err
	}
	return nil
}

// HandleMessageResponse handles both success and error responses
func HandleMessageResponse(w http.ResponseWriter, errorMessage string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	response := models.NewMessageResponse(statusCode, errorMessage)
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// HandleValidationResponse handles validation errors response for struct validation
func HandleValidationResponse(w http.ResponseWriter, statusCode int, validationErrors interface{}) {
	w.Header().Set("Content-Type", "application/json")
	response := models.NewValidationResponse(statusCode, validationErrors)
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// HandleDataResponse handles success responses with data
func HandleDataResponse(w http.ResponseWriter, message string, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	response := models.NewDataResponse(statusCode, message, data)
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// domainErrorStatus maps caller-inspectable error codes to HTTP statuses.
var domainErrorStatus = map[models.ErrorCode]int{
	models.ErrInvalidTarget:          http.StatusBadRequest,
	models.ErrDuplicateWeekIndex:     http.StatusBadRequest,
	models.ErrDuplicateDayDate:       http.StatusBadRequest,
	models.ErrDayWeekSumMismatch:     http.StatusBadRequest,
	models.ErrWeekMonthSumMismatch:   http.StatusBadRequest,
	models.ErrInvalidRange:           http.StatusBadRequest,
	models.ErrInvalidSlot:            http.StatusBadRequest,
	models.ErrNotAssignee:            http.StatusForbidden,
	models.ErrNotAccepted:            http.StatusConflict,
	models.ErrNotFound:               http.StatusNotFound,
	models.ErrConcurrentModification: http.StatusConflict,
}

// HandleDomainError writes a DomainError with its unit fields intact so
// clients see exactly which week/date/slot was rejected; storage and
// unknown errors become a plain 500.
func HandleDomainError(w http.ResponseWriter, err error) {
	var domainErr *models.DomainError
	if errors.As(err, &domainErr) {
		status, ok := domainErrorStatus[domainErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(models.NewDataResponse(status, domainErr.Message, domainErr))
		return
	}

	var storageErr *models.StorageError
	if errors.As(err, &storageErr) {
		HandleMessageResponse(w, "storage failure, try again", http.StatusInternalServerError)
		return
	}

	HandleMessageResponse(w, err.Error(), http.StatusInternalServerError)
}
