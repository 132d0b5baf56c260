package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tarokuma555-maker/mogumogu-sub000/app/config"
	"github.com/tarokuma555-maker/mogumogu-sub000/auth"
	"github.com/tarokuma555-maker/mogumogu-sub000/llm"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	return cfg
}

// claimsMiddleware injects verified claims, standing in for the auth layer.
func claimsMiddleware(sub string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auth.WithClaims(c.Request.Context(), &auth.Claims{Subject: sub})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func expectUserRow(mock sqlmock.Sqlmock, premium bool) {
	rows := sqlmock.NewRows([]string{
		"email", "plan", "is_premium", "stripe_customer_id", "stripe_subscription_id", "premium_expires_at",
	}).AddRow("parent@example.com", "FREE", premium, nil, nil, nil)
	mock.ExpectQuery(`SELECT email, plan, is_premium`).WillReturnRows(rows)
}

func newCompletionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRecipeGenerationUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := withMockDB(t)
	cfg := testConfig(t)

	server := newCompletionServer(t, `[]`)
	client := llm.NewClient("test-key", server.URL)

	router := gin.New()
	router.POST("/api/recipes/generate", GenerateRecipesHandler(client, cfg))

	body := `{"babyAgeMonths":7,"allergens":[],"count":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/recipes/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	// No database reads or writes may happen before authentication.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database activity: %v", err)
	}
}

func TestRecipeSearchQuotaExhausted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := withMockDB(t)
	cfg := testConfig(t)

	expectUserRow(mock, false)
	expectUsageCount(mock, tableRecipeSearches, 3)

	server := newCompletionServer(t, `[]`)
	client := llm.NewClient("test-key", server.URL)

	router := gin.New()
	router.Use(claimsMiddleware("user-1"))
	router.POST("/api/recipes/search", SearchRecipesHandler(client, cfg))

	body := `{"babyAgeMonths":8,"ingredients":["carrot"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/recipes/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Limit int `json:"limit"`
		Used  int `json:"used"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Limit != 3 || resp.Used != 3 {
		t.Fatalf("quota body = %+v, want limit=3 used=3", resp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecipeSearchSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := withMockDB(t)
	cfg := testConfig(t)

	expectUserRow(mock, false)
	expectUsageCount(mock, tableRecipeSearches, 1)
	mock.ExpectExec(`INSERT INTO recipe_searches`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	fenced := "```json\n[{\"name\":\"carrot porridge\",\"ageMonths\":8}]\n```"
	server := newCompletionServer(t, fenced)
	client := llm.NewClient("test-key", server.URL)

	router := gin.New()
	router.Use(claimsMiddleware("user-1"))
	router.POST("/api/recipes/search", SearchRecipesHandler(client, cfg))

	body := `{"babyAgeMonths":8,"ingredients":["carrot"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/recipes/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Recipes []map[string]any `json:"recipes"`
		Usage   struct {
			Used      int  `json:"used"`
			Limit     int  `json:"limit"`
			IsPremium bool `json:"isPremium"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(resp.Recipes) != 1 || resp.Recipes[0]["name"] != "carrot porridge" {
		t.Fatalf("unexpected recipes: %+v", resp.Recipes)
	}
	if resp.Usage.Used != 2 || resp.Usage.Limit != 3 || resp.Usage.IsPremium {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecipeGenerationMalformedCompletionNotCharged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := withMockDB(t)
	cfg := testConfig(t)

	expectUserRow(mock, false)
	expectUsageCount(mock, tableGeneratedRecipes, 0)

	server := newCompletionServer(t, "Sorry, I can only answer in prose today.")
	client := llm.NewClient("test-key", server.URL)

	router := gin.New()
	router.Use(claimsMiddleware("user-1"))
	router.POST("/api/recipes/generate", GenerateRecipesHandler(client, cfg))

	body := `{"babyAgeMonths":7,"allergens":[],"count":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/recipes/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
	// A reply the parser rejects must not consume a quota unit.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database activity: %v", err)
	}
}

func TestConsultUpstreamFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := withMockDB(t)
	cfg := testConfig(t)

	expectUserRow(mock, false)
	expectUsageCount(mock, tableConsultations, 0)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
	}))
	t.Cleanup(server.Close)
	client := llm.NewClient("test-key", server.URL)

	router := gin.New()
	router.Use(claimsMiddleware("user-1"))
	router.POST("/api/consult", ConsultHandler(client, cfg))

	body := `{"message":"Is strawberry ok at 6 months?"}`
	req := httptest.NewRequest(http.MethodPost, "/api/consult", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "model overloaded") {
		t.Fatalf("upstream error body must not be relayed to the client")
	}
	// No usage row may be recorded for a failed completion.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestConsultValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := withMockDB(t)
	cfg := testConfig(t)

	server := newCompletionServer(t, "ok")
	client := llm.NewClient("test-key", server.URL)

	router := gin.New()
	router.Use(claimsMiddleware("user-1"))
	router.POST("/api/consult", ConsultHandler(client, cfg))

	for name, body := range map[string]string{
		"empty message": `{"message":"   "}`,
		"age too low":   `{"message":"hi","babyAgeMonths":2}`,
		"age too high":  `{"message":"hi","babyAgeMonths":36}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/consult", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("validation errors must precede database access: %v", err)
	}
}
