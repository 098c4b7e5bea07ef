package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest("GET", "/api/v1/documents", nil)

	RequestID()(c)

	id := rec.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	require.Equal(t, id, c.GetString(ContextRequestIDKey))
}

func TestRequestID_HonorsCallerSupplied(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest("GET", "/api/v1/documents", nil)
	c.Request.Header.Set(RequestIDHeader, "caller-chosen-id")

	RequestID()(c)

	require.Equal(t, "caller-chosen-id", rec.Header().Get(RequestIDHeader))
	require.Equal(t, "caller-chosen-id", c.GetString(ContextRequestIDKey))
}
