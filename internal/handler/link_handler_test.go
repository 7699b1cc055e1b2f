package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"tinylink/internal/domain"
	"tinylink/pkg/logger"
)

// MockLinkService is a mock implementation of LinkService
type MockLinkService struct {
	mock.Mock
}

func (m *MockLinkService) Allocate(ctx context.Context, req *domain.CreateLinkRequest, scheme, host string) (*domain.Link, error) {
	args := m.Called(ctx, req, scheme, host)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkService) Resolve(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *MockLinkService) GetByCode(ctx context.Context, code string) (*domain.Link, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkService) ListAll(ctx context.Context) ([]domain.Link, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Link), args.Error(1)
}

func (m *MockLinkService) Remove(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

// stubHealth lets tests flip store connectivity
type stubHealth struct {
	err error
}

func (s *stubHealth) Ping(ctx context.Context) error {
	return s.err
}

func setupHandlerTest(t *testing.T, health *stubHealth) (*MockLinkService, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := new(MockLinkService)
	if health == nil {
		health = &stubHealth{}
	}
	h := NewLinkHandler(svc, health, logger.NewLogger())

	router := gin.New()
	router.GET("/links", h.ListLinks)
	router.POST("/addUrl", h.AddURL)
	router.GET("/redirect/:code", h.Redirect)
	router.GET("/code/:code", h.GetByCode)
	router.GET("/remove_url/:code", h.RemoveURL)
	router.GET("/healthz", h.Healthz)
	router.GET("/verifyAPI", h.VerifyAPI)

	return svc, router
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) domain.APIResponse {
	t.Helper()
	var resp domain.APIResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestListLinks(t *testing.T) {
	svc, router := setupHandlerTest(t, nil)

	svc.On("ListAll", mock.Anything).Return([]domain.Link{
		{ID: 2, Code: "newer123", Title: "Newer"},
		{ID: 1, Code: "older123", Title: "Older"},
	}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/links", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, "Data retrived successfully", resp.Message)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, resp.Data, 2)
}

func TestAddURL_Created(t *testing.T) {
	svc, router := setupHandlerTest(t, nil)

	link := &domain.Link{
		ID:          1,
		Code:        "abc123XY",
		OriginalURL: "https://example.com/docs",
		ShortURL:    "http://sho.rt/abc123XY",
		Title:       "Docs",
	}
	svc.On("Allocate", mock.Anything, mock.AnythingOfType("*domain.CreateLinkRequest"), "http", "sho.rt").
		Return(link, nil)

	body := `{"title":"Docs","original_url":"https://example.com/docs"}`
	req := httptest.NewRequest("POST", "/addUrl", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Host = "sho.rt"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, "Link added successfully", resp.Message)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAddURL_ForwardedProto(t *testing.T) {
	svc, router := setupHandlerTest(t, nil)

	svc.On("Allocate", mock.Anything, mock.AnythingOfType("*domain.CreateLinkRequest"), "https", "sho.rt").
		Return(&domain.Link{Code: "abc123XY"}, nil)

	body := `{"title":"Docs","original_url":"https://example.com/docs"}`
	req := httptest.NewRequest("POST", "/addUrl", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Host = "sho.rt"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestAddURL_MissingParam(t *testing.T) {
	svc, router := setupHandlerTest(t, nil)

	svc.On("Allocate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.NewMissingParamError("original_url"))

	req := httptest.NewRequest("POST", "/addUrl", strings.NewReader(`{"title":"Docs"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, `Parameter "original_url" is missing`, resp.Message)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAddURL_CodeConflict(t *testing.T) {
	svc, router := setupHandlerTest(t, nil)

	svc.On("Allocate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrCodeTaken)

	body := `{"title":"Promo","original_url":"https://example.com/p","code":"promo"}`
	req := httptest.NewRequest("POST", "/addUrl", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, "Code already exists. Try another.", resp.Message)
}

func TestRedirect_Found(t *testing.T) {
	svc, router := setupHandlerTest(t, nil)

	svc.On("Resolve", mock.Anything, "abc123XY").Return("https://example.com/docs", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/redirect/abc123XY", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/docs", w.Header().Get("Location"))
}

func TestRedirect_NotFound(t *testing.T) {
	svc, router := setupHandlerTest(t, nil)

	svc.On("Resolve", mock.Anything, "missing1").Return("", domain.ErrLinkNotFound)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/redirect/missing1", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, "Short code not found in DB", resp.Message)
}

func TestRedirect_UpdateRaceLost(t *testing.T) {
	svc, router := setupHandlerTest(t, nil)

	svc.On("Resolve", mock.Anything, "abc123XY").Return("", domain.ErrUpdateRaceLost)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/redirect/abc123XY", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, "Failed to update click count", resp.Message)
}

func TestGetByCode(t *testing.T) {
	svc, router := setupHandlerTest(t, nil)

	link := &domain.Link{ID: 1, Code: "abc123XY", Title: "Docs", TotalClicks: 3}
	svc.On("GetByCode", mock.Anything, "abc123XY").Return(link, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/code/abc123XY", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, "Data retrived successfully", resp.Message)

	data, ok := resp.Data.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "abc123XY", data["code"])
	assert.Equal(t, float64(3), data["total_clicks"])
}

func TestGetByCode_NotFound(t *testing.T) {
	svc, router := setupHandlerTest(t, nil)

	svc.On("GetByCode", mock.Anything, "missing1").Return(nil, domain.ErrLinkNotFound)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/code/missing1", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveURL(t *testing.T) {
	svc, router := setupHandlerTest(t, nil)

	svc.On("Remove", mock.Anything, "abc123XY").Return(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/remove_url/abc123XY", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, "URL data removed successfully", resp.Message)
}

func TestRemoveURL_MissingReportedAs400(t *testing.T) {
	svc, router := setupHandlerTest(t, nil)

	svc.On("Remove", mock.Anything, "missing1").Return(domain.ErrLinkNotFound)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/remove_url/missing1", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, "Failed to delete the details", resp.Message)
}

func TestHealthz_OK(t *testing.T) {
	_, router := setupHandlerTest(t, &stubHealth{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp domain.HealthResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "connected", resp.Database)
	assert.GreaterOrEqual(t, resp.Uptime, 0.0)
}

func TestHealthz_StoreDown(t *testing.T) {
	_, router := setupHandlerTest(t, &stubHealth{err: errors.New("connection refused")})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp domain.HealthResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "disconnected", resp.Database)
}

func TestVerifyAPI(t *testing.T) {
	_, router := setupHandlerTest(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/verifyAPI", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"API is working"`, w.Body.String())
}
