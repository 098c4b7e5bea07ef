// Package response renders the API envelope. Every endpoint answers
// {"code": ..., "msg": ..., "data": ...} with HTTP status 200; clients
// switch on the envelope code, where zero means success and non-zero
// values come from pkg/errcode.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

// statusError carries an errcode value through proxyutil, which reads
// the code off the error via the Code method.
type statusError struct {
	code uint32
	msg  string
}

func (e *statusError) Error() string { return e.msg }

func (e *statusError) Code() uint32 { return e.code }

// Success writes data under code zero.
func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error writes a non-zero envelope code with a caller-facing message.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, http.StatusOK, &statusError{code: uint32(code), msg: message})
}
