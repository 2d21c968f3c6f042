package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yashrajoria/swn-shop/services/common/errors"

	"github.com/yashrajoria/swn-shop/services/order-service/controllers"
	"github.com/yashrajoria/swn-shop/services/order-service/models"
	"github.com/yashrajoria/swn-shop/services/order-service/routes"
	"github.com/yashrajoria/swn-shop/services/order-service/services"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, inv services.Invocation) (services.Result, error) {
	args := m.Called(ctx, inv)
	return args.Get(0).(services.Result), args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(d *MockDispatcher) *gin.Engine {
	r := gin.New()
	routes.RegisterOrderRoutes(r, controllers.NewOrderController(d))
	return r
}

func TestOrderController(t *testing.T) {
	t.Run("Success - point query passes path and query", func(t *testing.T) {
		d := new(MockDispatcher)
		want := services.HTTPRequest{
			Method:     http.MethodGet,
			PathParams: map[string]string{"userName": "swn"},
			Query:      map[string]string{"createdAt": "t1"},
		}
		d.On("Dispatch", mock.Anything, want).
			Return(services.Result{Body: []models.Order{{UserName: "swn", CreatedAt: "t1"}}}, nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/order/swn?createdAt=t1", nil)
		setupRouter(d).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body []models.Order
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body, 1)
		assert.Equal(t, "t1", body[0].CreatedAt)
		d.AssertExpectations(t)
	})

	t.Run("Success - list all", func(t *testing.T) {
		d := new(MockDispatcher)
		d.On("Dispatch", mock.Anything, services.HTTPRequest{
			Method:     http.MethodGet,
			PathParams: map[string]string{},
			Query:      map[string]string{},
		}).Return(services.Result{Body: []models.Order{}}, nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/order", nil)
		setupRouter(d).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("Failure - unrouted method goes through the dispatcher", func(t *testing.T) {
		d := new(MockDispatcher)
		d.On("Dispatch", mock.Anything, mock.MatchedBy(func(inv services.Invocation) bool {
			req, ok := inv.(services.HTTPRequest)
			return ok && req.Method == http.MethodPost
		})).Return(services.Result{}, apperrors.Unsupported(http.MethodPost)).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/order", nil)
		setupRouter(d).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var body apperrors.Body
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, apperrors.FailureMessage, body.Message)
		assert.Equal(t, apperrors.KindUnsupportedOperation, body.ErrorKind)
		d.AssertExpectations(t)
	})
}
