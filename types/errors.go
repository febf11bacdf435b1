package types

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类
type Kind string

const (
	KindInputValidation Kind = "InputValidationError"
	KindPayloadTooLarge Kind = "PayloadTooLarge"
	KindConfigMissing   Kind = "ConfigMissing"
	KindUpstreamModel   Kind = "UpstreamModelError"
	KindSchemaParse     Kind = "SchemaParseError"
	KindUnexpected      Kind = "UnexpectedError"
)

// Status 对应的 HTTP 状态码；客户端输入问题为 4xx，其余为 5xx
func (k Kind) Status() int {
	switch k {
	case KindInputValidation:
		return http.StatusBadRequest
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindConfigMissing:
		return http.StatusInternalServerError
	case KindUpstreamModel, KindSchemaParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ClassifiedError 终止请求的错误。Message 可以直接展示给用户，Cause 只进日志
type ClassifiedError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *ClassifiedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

func (e *ClassifiedError) Status() int {
	return e.Kind.Status()
}

func NewError(kind Kind, message string, cause error) *ClassifiedError {
	return &ClassifiedError{Kind: kind, Message: message, Cause: cause}
}

func InputValidation(message string) *ClassifiedError {
	return NewError(KindInputValidation, message, nil)
}

func PayloadTooLarge(limit int64) *ClassifiedError {
	return NewError(KindPayloadTooLarge,
		fmt.Sprintf("file exceeds the upload limit of %d bytes", limit), nil)
}

func ConfigMissing(message string) *ClassifiedError {
	return NewError(KindConfigMissing, message, nil)
}

func UpstreamModel(cause error) *ClassifiedError {
	return NewError(KindUpstreamModel, "the language model service failed to produce a summary", cause)
}

func SchemaParse(cause error) *ClassifiedError {
	return NewError(KindSchemaParse, "the language model returned a response that could not be parsed", cause)
}

func Unexpected(cause error) *ClassifiedError {
	return NewError(KindUnexpected, "an unexpected error occurred", cause)
}

// Classify 把任意错误归到固定的几类；未识别的一律是 UnexpectedError
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return PayloadTooLarge(tooLarge.Limit)
	}
	return Unexpected(err)
}
