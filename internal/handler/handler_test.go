package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/domain"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1

	h, err := NewHandler(cfg, nil, nil, nil)
	require.NoError(t, err)
	return h
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// adminRouter 只挂载一个需要管理员权限的接口，不需要数据库
func adminRouter(h *Handler) *chi.Mux {
	mux := chi.NewRouter()
	mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
			id, err := currentUserID(r)
			if err != nil {
				h.internalServerError(w, r, err)
				return
			}
			h.successResponse(w, r, "ok", id)
		})
	})
	return mux
}

func TestAuthAndRequiredRole(t *testing.T) {
	h := newTestHandler(t)
	mux := adminRouter(h)

	withToken := func(role domain.Role, expiration time.Time) *http.Request {
		token, err := h.signToken(string(role), "5", expiration)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: token})
		return req
	}

	garbage := httptest.NewRequest(http.MethodGet, "/admin", nil)
	garbage.AddCookie(&http.Cookie{Name: tokenCookieName, Value: "garbage"})

	tests := []struct {
		name    string
		req     *http.Request
		success bool
		message string
	}{
		{"没有 cookie", httptest.NewRequest(http.MethodGet, "/admin", nil), false, "用户未登录"},
		{"无效的令牌", garbage, false, "无效的令牌"},
		{"过期的令牌", withToken(domain.RoleAdmin, time.Now().Add(-time.Hour)), false, "无效的令牌"},
		{"策划没有权限", withToken(domain.RolePlanner, time.Now().Add(time.Hour)), false, "权限不足"},
		{"管理员", withToken(domain.RoleAdmin, time.Now().Add(time.Hour)), true, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, tt.req)

			resp := decodeResponse(t, rec)
			assert.Equal(t, tt.success, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
			if tt.success {
				assert.Equal(t, float64(5), resp.Data)
			}
		})
	}
}

func TestDecodeAndValidate(t *testing.T) {
	h := newTestHandler(t)

	type loginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"合法", `{"username":"admin","password":"secret"}`, false},
		{"空请求体", ``, true},
		{"未知字段", `{"username":"admin","password":"secret","role":"管理员"}`, true},
		{"多个对象", `{"username":"admin","password":"secret"}{}`, true},
		{"缺少字段", `{"username":"admin"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req loginRequest
			err := h.decodeAndValidate(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)), &req)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBadRequestTranslatesValidationErrors(t *testing.T) {
	h := newTestHandler(t)

	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	err := h.decodeAndValidate(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"not-an-email"}`)), &req)
	require.Error(t, err)

	rec := httptest.NewRecorder()
	h.badRequest(rec, httptest.NewRequest(http.MethodPost, "/", nil), err)

	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "Email")
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, tokenCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, decodeResponse(t, rec).Success)
}

func TestExportExperimentRejectsUnknownFormat(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/experiments/1/export?format=pdf", nil)
	ctx := req.Context()
	req = req.WithContext(contextWith(ctx, ExperimentCtx, &domain.Experiment{ID: 1, Name: "demo"}))

	rec := httptest.NewRecorder()
	h.ExportExperiment(rec, req)
	assert.Equal(t, "不支持的导出格式", decodeResponse(t, rec).Message)

	// 未完成的实验不能导出
	req = httptest.NewRequest(http.MethodGet, "/experiments/1/export?format=csv", nil)
	req = req.WithContext(contextWith(req.Context(), ExperimentCtx, &domain.Experiment{ID: 1, Status: domain.ExperimentStatusRunning}))
	rec = httptest.NewRecorder()
	h.ExportExperiment(rec, req)
	assert.Equal(t, "实验尚未完成", decodeResponse(t, rec).Message)
}

func TestGenerateSeatingPlanLimits(t *testing.T) {
	h := newTestHandler(t)
	h.config.GridSearch.MaxGenerations = 500
	h.config.GridSearch.MaxPopSize = 500

	for _, tc := range []struct {
		name    string
		body    string
		message string
	}{
		{"generations", `{"popSize":50,"generations":501}`, "迭代次数不能超过 500"},
		{"pop size", `{"popSize":501,"generations":10}`, "种群大小不能超过 500"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			body := strings.Replace(tc.body, "}", `,"eliteSize":2,"nrTables":2,"selection":"tournament_selection","crossover":"gbx_crossover","mutation":"swap_mutation"}`, 1)
			req := httptest.NewRequest(http.MethodPost, "/relationship-sheets/1/seating-plans", strings.NewReader(body))
			req = req.WithContext(contextWith(req.Context(), RelationshipSheetCtx, &domain.RelationshipSheet{ID: 1}))

			rec := httptest.NewRecorder()
			h.GenerateSeatingPlan(rec, req)

			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.message, resp.Message)
		})
	}
}

func contextWith(ctx context.Context, key ContextKey, v any) context.Context {
	return context.WithValue(ctx, key, v)
}
