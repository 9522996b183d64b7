package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/apitest"
	"jobboard/internal/shared/model"
)

func TestHandlerRoutes(t *testing.T) {
	svc, store := newTestService(t)
	mux := http.NewServeMux()
	NewHandler(svc).RegisterRoutes(mux)

	admin := apitest.SeedAdmin(t, store, "root@x.io")
	alice, _ := apitest.SeedSeeker(t, store, "alice@x.io", "Go")
	_, emp := apitest.SeedEmployer(t, store, "hr@acme.io", false)
	j := apitest.SeedJob(t, store, emp.ID, "Go Dev", model.JobStatusPending)

	do := func(p *access.Principal, method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(access.WithPrincipal(req.Context(), p))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	tests := []struct {
		name   string
		p      *access.Principal
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{"待审批雇主", admin, "GET", "/api/v1/admin/employers/pending", "", 200, emp.ID},
		{"批准雇主", admin, "PUT", "/api/v1/admin/employers/" + emp.ID + "/approve", "", 200, `"isApproved":true`},
		{"拒绝雇主带理由", admin, "PUT", "/api/v1/admin/employers/" + emp.ID + "/reject", `{"reason":"fake company"}`, 200, `"isApproved":false`},
		{"搜索雇主", admin, "GET", "/api/v1/admin/employers/search?name=acme", "", 200, emp.ID},
		{"用户分页", admin, "GET", "/api/v1/admin/users?page=0&size=2", "", 200, `"totalElements":3`},
		{"按角色", admin, "GET", "/api/v1/users/role/employer", "", 200, "hr@acme.io"},
		{"未知角色", admin, "GET", "/api/v1/admin/users/role/guest", "", 400, ""},
		{"按邮箱搜索", admin, "GET", "/api/v1/admin/users/search?email=alice", "", 200, "alice@x.io"},
		{"停用自己", admin, "PUT", "/api/v1/admin/users/" + admin.UserID + "/deactivate", "", 400, ""},
		{"删除管理员", admin, "DELETE", "/api/v1/admin/users/" + admin.UserID, "", 403, ""},
		{"待审核职位", admin, "GET", "/api/v1/admin/jobs/pending", "", 200, j.ID},
		{"审核拒绝", admin, "PUT", "/api/v1/admin/jobs/" + j.ID + "/reject", `{"reason":"duplicate"}`, 200, `"status":"REJECTED"`},
		{"单个职位审核记录", admin, "GET", "/api/v1/admin/moderation-logs/job/" + j.ID, "", 200, "duplicate"},
		{"总览", admin, "GET", "/api/v1/admin/statistics", "", 200, `"rejectedJobs":1`},
		{"用户统计", admin, "GET", "/api/v1/users/statistics", "", 200, `"admins":1`},
		{"求职者访问后台", alice, "GET", "/api/v1/admin/users", "", 403, ""},
		{"匿名访问后台", nil, "GET", "/api/v1/admin/statistics", "", 401, ""},
		{"查看自己", alice, "GET", "/api/v1/users/profile", "", 200, "alice@x.io"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(tt.p, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.want != "" {
				assert.Contains(t, rec.Body.String(), tt.want)
			}
		})
	}

	rec := do(alice, "PUT", "/api/v1/users/deactivate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(admin, "GET", "/api/v1/users/"+alice.UserID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var u model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.False(t, u.IsActive)

	rec = do(admin, "PUT", "/api/v1/users/"+alice.UserID+"/activate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isActive":true`)
}
