package api

type ApiResStatusEnum string

const (
	ApiResStatusOk               ApiResStatusEnum = "OK"
	ApiResStatusError            ApiResStatusEnum = "ERROR"
	ApiResStatusRequestBodyError ApiResStatusEnum = "REQUEST_BODY_ERROR"
	ApiResStatusInvalidRequest   ApiResStatusEnum = "INVALID_REQUEST"
	ApiResStatusNotFound         ApiResStatusEnum = "NOT_FOUND"
)

// ApiResponseWrapper is the envelope of every audit API response. Data
// is set on success; the error fields are set otherwise.
type ApiResponseWrapper[T any] struct {
	Status       ApiResStatusEnum `json:"status"`
	Data         T                `json:"data"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	ErrorDetails string           `json:"errorDetails,omitempty"`
}
