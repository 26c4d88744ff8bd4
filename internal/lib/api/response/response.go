package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// Сообщения об ошибках, которые видит клиент.
const (
	MsgNotFound          = "Errors.NotFound"
	MsgOperationNotFound = "Errors.OperationNotFound"
	MsgBadRequest        = "Errors.BadRequest"
	MsgUserAlreadyExists = "Errors.UserAlreadyExists"
	MsgNotVerify         = "Errors.NotVerify"
	MsgPermissionDenied  = "Errors.PermissionDenied"
	MsgWrongPassword     = "Errors.WrongPassword"
	MsgTooManyRequests   = "Errors.TooManyRequests"
	MsgInvalidSession    = "Errors.InvalidSession"
	MsgUnauthorized      = "Errors.Unauthorized"
	MsgInternal          = "Errors.Internal"
	MsgPasswordNotValid  = "Errors.Password must be at least 8 characters long and contain lower and upper case letters, a digit and a special character"
)

func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not a valid email", err.Field()))
		case "password":
			errMsgs = append(errMsgs, MsgPasswordNotValid)
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMsgs, ", "),
	}
}
