package models

// MessageResponse is the plain status/message envelope used for
// successes without a body and for non-domain errors.
type MessageResponse struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

// ValidationResponse carries per-field payload validation failures.
type ValidationResponse struct {
	StatusCode int         `json:"status_code"`
	Errors     interface{} `json:"errors"`
}

// DataResponse wraps a successful result, or a DomainError with its
// unit fields, in the common envelope.
type DataResponse struct {
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
}

func NewMessageResponse(statusCode int, message string) MessageResponse {
	return MessageResponse{
		StatusCode: statusCode,
		Message:    message,
	}
}

func NewValidationResponse(statusCode int, errors interface{}) ValidationResponse {
	return ValidationResponse{
		StatusCode: statusCode,
		Errors:     errors,
	}
}

func NewDataResponse(statusCode int, message string, data interface{}) DataResponse {
	return DataResponse{
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
	}
}
