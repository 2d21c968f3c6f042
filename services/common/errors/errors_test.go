package errors_test

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yashrajoria/swn-shop/services/common/errors"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("checkout: %w", apperrors.NotFound("basket %q has no items", "swn"))

	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(wrapped))
	assert.True(t, stderrors.Is(wrapped, apperrors.ErrNotFound))
	assert.False(t, stderrors.Is(wrapped, apperrors.ErrDownstream))
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(stderrors.New("plain")))
}

func TestDownstreamUnwraps(t *testing.T) {
	cause := stderrors.New("ProvisionedThroughputExceededException")
	err := apperrors.Downstream("dynamodb PutItem failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "dynamodb PutItem failed: ProvisionedThroughputExceededException", err.Error())
}

func TestErrorMiddleware_FlatBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantKind   apperrors.Kind
		wantMsg    string
		wantDetail string
	}{
		{"Validation", apperrors.Validation("userName should exist in request"), apperrors.KindValidation, "userName should exist in request", ""},
		{"NotFound", apperrors.NotFound("basket not found"), apperrors.KindNotFound, "basket not found", ""},
		{"Downstream", apperrors.Downstream("eventbridge PutEvents failed", stderrors.New("timeout")), apperrors.KindDownstream, "eventbridge PutEvents failed", "timeout"},
		{"Unsupported", apperrors.Unsupported("PUT"), apperrors.KindUnsupportedOperation, `Unsupported route method: "PUT"`, ""},
		{"Plain", stderrors.New("boom"), apperrors.KindInternal, "boom", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(apperrors.ErrorMiddleware())
			r.GET("/x", func(c *gin.Context) { _ = c.Error(tc.err) })

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			var body apperrors.Body
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "Failed to perform operation", body.Message)
			assert.Equal(t, tc.wantKind, body.ErrorKind)
			assert.Equal(t, tc.wantMsg, body.ErrorMessage)
			assert.Equal(t, tc.wantDetail, body.ErrorDetail)
		})
	}
}
