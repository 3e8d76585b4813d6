package plan

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPlanRouter(repo *MockRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewService(repo))

	router := gin.New()
	router.GET("/plans", h.ListPlans)
	router.POST("/admin/plans", h.CreatePlan)
	router.PUT("/admin/plans/:planID", h.UpdatePlan)
	router.DELETE("/admin/plans/:planID", h.DeletePlan)
	return router
}

func TestHandler_ListPlans(t *testing.T) {
	repo := new(MockRepository)
	p := Plan{ID: 1, Name: "Basic", Duration: DurationMonthly, GuestPassLimit: intPtr(2), IsActive: true}
	p.Resolve()
	repo.On("List", mock.Anything, true).Return([]Plan{p}, nil)

	w := httptest.NewRecorder()
	newPlanRouter(repo).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	limits := body[0]["limits"].(map[string]interface{})
	assert.Equal(t, float64(2), limits["guest_pass"])
	assert.Nil(t, limits["massage"])
}

func TestHandler_CreatePlan(t *testing.T) {
	t.Run("invalid duration", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/plans",
			bytes.NewBufferString(`{"name":"Weekly","duration":"weekly"}`))
		req.Header.Set("Content-Type", "application/json")
		newPlanRouter(new(MockRepository)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"Duration"`)
	})

	t.Run("negative limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/plans",
			bytes.NewBufferString(`{"name":"Basic","duration":"monthly","guest_pass_limit":-1}`))
		req.Header.Set("Content-Type", "application/json")
		newPlanRouter(new(MockRepository)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("created", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Create", mock.Anything, mock.Anything).
			Return(&Plan{ID: 3, Name: "Basic", Duration: DurationMonthly, IsActive: true}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/plans",
			bytes.NewBufferString(`{"name":"Basic","duration":"monthly","guest_pass_limit":2}`))
		req.Header.Set("Content-Type", "application/json")
		newPlanRouter(repo).ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		repo.AssertExpectations(t)
	})
}

func TestHandler_UpdateAndDeleteNotFound(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, 8).Return(nil, ErrPlanNotFound)
	repo.On("Delete", mock.Anything, 8).Return(ErrPlanNotFound)
	router := newPlanRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/admin/plans/8",
		bytes.NewBufferString(`{"name":"Basic","duration":"monthly"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/plans/8", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/plans/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
