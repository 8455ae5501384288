package errno

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	SuccessCode              = 0
	ServiceErrCode           = 10001
	ParamErrCode             = 10002
	InvalidIdentifierCode    = 10003
	NotFoundCode             = 10004
	ForbiddenCode            = 10005
	ConflictCode             = 10006
	AuthorizationFailedCode  = 10007
	UpstreamTimeoutCode      = 10008
	UpstreamUnavailableCode  = 10009
	ConsistencyViolationCode = 10010
)

type ErrNo struct {
	ErrCode    int64
	StatusCode int
	ErrMsg     string
}

func (e ErrNo) Error() string {
	return fmt.Sprintf("err_code=%d, status_code=%d, err_msg=%s", e.ErrCode, e.StatusCode, e.ErrMsg)
}

func NewErrNo(code int64, status int, msg string) ErrNo {
	return ErrNo{ErrCode: code, StatusCode: status, ErrMsg: msg}
}

func (e ErrNo) WithMessage(msg string) ErrNo {
	e.ErrMsg = msg
	return e
}

var (
	Success              = NewErrNo(SuccessCode, 200, "Success")
	ServiceErr           = NewErrNo(ServiceErrCode, 500, "Service internal error")
	ParamErr             = NewErrNo(ParamErrCode, 400, "Wrong parameter has been given")
	InvalidIdentifier    = NewErrNo(InvalidIdentifierCode, 400, "Invalid identifier")
	NotFound             = NewErrNo(NotFoundCode, 404, "Resource not found")
	Forbidden            = NewErrNo(ForbiddenCode, 403, "Operation not allowed for this user")
	Conflict             = NewErrNo(ConflictCode, 409, "Resource already exists")
	AuthorizationFailed  = NewErrNo(AuthorizationFailedCode, 401, "Authorization failed")
	UpstreamTimeout      = NewErrNo(UpstreamTimeoutCode, 504, "Storage did not respond in time")
	UpstreamUnavailable  = NewErrNo(UpstreamUnavailableCode, 503, "Storage unavailable")
	ConsistencyViolation = NewErrNo(ConsistencyViolationCode, 500, "Cascade cleanup partially failed")
)

// ConvertErr converts any error into an ErrNo. Storage errors are mapped to
// the taxonomy without leaking driver detail into the message.
func ConvertErr(err error) ErrNo {
	if err == nil {
		return Success
	}
	var e ErrNo
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return UpstreamTimeout
	case errors.Is(err, mongo.ErrNoDocuments):
		return NotFound
	case mongo.IsTimeout(err):
		return UpstreamTimeout
	case mongo.IsNetworkError(err):
		return UpstreamUnavailable
	case mongo.IsDuplicateKeyError(err):
		return Conflict
	}
	return ServiceErr.WithMessage(err.Error())
}
