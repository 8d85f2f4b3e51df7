package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"nadlan/internal/models"
	"nadlan/internal/services"
)

func setupUserRouter(who gin.HandlerFunc, svc *mockUserService, audit *mockAuditService) *gin.Engine {
	h := NewUserHandler(svc, audit)
	r := gin.New()
	r.Use(who)
	r.GET("/investors", h.ListInvestors)
	r.GET("/users/:id", h.GetUser)
	r.PATCH("/users/:id", h.UpdateUser)
	return r
}

func TestUserHandler_ListInvestors(t *testing.T) {
	t.Run("advisor gets a page", func(t *testing.T) {
		r := setupUserRouter(asAdvisor(), &mockUserService{}, &mockAuditService{})

		rec := doRequest(r, http.MethodGet, "/investors?page=1&pageSize=10", "")
		assertStatus(t, rec, http.StatusOK)
		if _, ok := parseJSON(t, rec)["data"]; !ok {
			t.Error("expected data field")
		}
	})

	t.Run("investor is forbidden", func(t *testing.T) {
		r := setupUserRouter(asInvestor(), &mockUserService{}, &mockAuditService{})

		rec := doRequest(r, http.MethodGet, "/investors", "")
		assertStatus(t, rec, http.StatusForbidden)
	})

	t.Run("rejects an oversized page", func(t *testing.T) {
		r := setupUserRouter(asAdvisor(), &mockUserService{}, &mockAuditService{})

		rec := doRequest(r, http.MethodGet, "/investors?pageSize=500", "")
		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestUserHandler_GetUser(t *testing.T) {
	t.Run("investor reads self", func(t *testing.T) {
		r := setupUserRouter(asInvestor(), &mockUserService{}, &mockAuditService{})
		assertStatus(t, doRequest(r, http.MethodGet, "/users/"+investorID, ""), http.StatusOK)
	})

	t.Run("investor cannot read another user", func(t *testing.T) {
		r := setupUserRouter(asInvestor(), &mockUserService{}, &mockAuditService{})
		assertStatus(t, doRequest(r, http.MethodGet, "/users/"+strangerID, ""), http.StatusForbidden)
	})

	t.Run("invalid id", func(t *testing.T) {
		r := setupUserRouter(asAdvisor(), &mockUserService{}, &mockAuditService{})

		rec := doRequest(r, http.MethodGet, "/users/42", "")
		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestUserHandler_UpdateUser(t *testing.T) {
	t.Run("investor may change contact details", func(t *testing.T) {
		var got services.UserPatch
		svc := &mockUserService{
			updateUserFn: func(id string, patch services.UserPatch) (*models.User, error) {
				got = patch
				return &models.User{Base: models.Base{ID: id}, Phone: *patch.Phone}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupUserRouter(asInvestor(), svc, audit)

		rec := doRequest(r, http.MethodPatch, "/users/"+investorID, `{"phone":"050-1234567"}`)
		assertStatus(t, rec, http.StatusOK)
		if got.Phone == nil || got.Name != nil {
			t.Errorf("unexpected patch: %+v", got)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "UPDATE_USER" {
			t.Errorf("unexpected audit entries: %+v", audit.entries)
		}
	})

	t.Run("investor may not change status", func(t *testing.T) {
		r := setupUserRouter(asInvestor(), &mockUserService{}, &mockAuditService{})

		rec := doRequest(r, http.MethodPatch, "/users/"+investorID, `{"name":"Y","status":"inactive"}`)
		assertStatus(t, rec, http.StatusForbidden)
		errObj := parseJSON(t, rec)["error"].(map[string]interface{})
		fields, _ := errObj["disallowedFields"].([]interface{})
		if len(fields) != 1 || fields[0] != "status" {
			t.Errorf("expected disallowedFields [status], got %v", errObj["disallowedFields"])
		}
	})

	t.Run("advisor may deactivate", func(t *testing.T) {
		r := setupUserRouter(asAdvisor(), &mockUserService{}, &mockAuditService{})

		rec := doRequest(r, http.MethodPatch, "/users/"+investorID, `{"status":"inactive"}`)
		assertStatus(t, rec, http.StatusOK)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		r := setupUserRouter(asAdvisor(), &mockUserService{}, &mockAuditService{})

		rec := doRequest(r, http.MethodPatch, "/users/"+investorID, `{"status":"banned"}`)
		assertStatus(t, rec, http.StatusBadRequest)
	})
}
