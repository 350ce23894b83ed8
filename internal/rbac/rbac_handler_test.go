package rbac

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	enforceFn func(ctx context.Context, req EnforceRequest) (bool, error)
}

func (f *fakeService) Enforce(ctx context.Context, req EnforceRequest) (bool, error) {
	return f.enforceFn(ctx, req)
}

func (f *fakeService) Permissions(ctx context.Context, employeeID string) ([]PermissionResponse, error) {
	return nil, nil
}

func TestHandler_Enforce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var got EnforceRequest
	handler := NewHandler(&fakeService{enforceFn: func(ctx context.Context, req EnforceRequest) (bool, error) {
		got = req
		return req.Resource == ResourceLeave && req.Action == ActionRead, nil
	}})

	router := gin.New()
	router.POST("/rbac/enforce", func(c *gin.Context) {
		c.Set("employee_id", "emp-1")
		c.Next()
	}, handler.Enforce)

	body, _ := json.Marshal(map[string]string{"resource": " leave ", "action": "read"})
	req, _ := http.NewRequest(http.MethodPost, "/rbac/enforce", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "emp-1", got.EmployeeID)
	assert.Equal(t, ResourceLeave, got.Resource)

	var resp struct {
		Ok   bool            `json:"ok"`
		Data EnforceResponse `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Ok)
	assert.True(t, resp.Data.Allowed)
}

func TestHandler_Enforce_BadBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(&fakeService{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/rbac/enforce", bytes.NewBufferString(`{"resource":""}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Enforce(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
