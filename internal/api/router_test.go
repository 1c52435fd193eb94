package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"recipe-finder/internal/api/handlers"
	"recipe-finder/internal/core/catalog"
	"recipe-finder/internal/core/pantry"
	"recipe-finder/internal/core/timer"
	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/infrastructure/storage"
	"recipe-finder/internal/pkg/common"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		App:         config.AppConfig{Env: "test", Version: "test"},
		Server:      config.ServerConfig{MaxBodyBytes: 1 << 16},
		Store:       config.StoreConfig{Driver: config.StoreMemory, KeyPrefix: "fc", MaxKeys: 100, TTL: time.Hour},
		DedupWindow: 50 * time.Millisecond,
	}
}

func testCatalog() *catalog.Catalog {
	ingredients := []catalog.Ingredient{
		{ID: "egg", Name: "Egg"},
		{ID: "milk", Name: "Milk"},
		{ID: "flour", Name: "Flour"},
		{ID: "oat-milk", Name: "Oat milk"},
		{ID: "eggplant", Name: "Eggplant"},
		{ID: "tomato", Name: "Tomato"},
	}
	req := func(id, name string) catalog.RecipeIngredient {
		return catalog.RecipeIngredient{ID: id, Name: name, Required: true}
	}
	recipes := []catalog.Recipe{
		{
			ID: "pancakes", Title: "Pancakes", Category: "breakfast", TimeMinutes: 20, Servings: 4, Vegetarian: true,
			Ingredients: []catalog.RecipeIngredient{req("egg", "Egg"), req("milk", "Milk"), req("flour", "Flour")},
			Steps:       []catalog.Step{{Text: "Mix"}, {Text: "Rest", Minutes: 10}},
		},
		{
			ID: "ratatouille", Title: "Ratatouille", Category: "dinner", TimeMinutes: 60, Servings: 6, Vegetarian: true, Budget: true,
			Ingredients: []catalog.RecipeIngredient{req("eggplant", "Eggplant"), req("tomato", "Tomato")},
		},
	}
	return catalog.New(ingredients, recipes, catalog.SubstitutionTable{"milk": {"oat-milk"}})
}

type testServer struct {
	router *gin.Engine
	store  *storage.MemoryStore
	timers *timer.Manager
}

func newTestServer(t *testing.T, cat *catalog.Catalog) *testServer {
	t.Helper()
	cfg := testConfig()

	var catalogs *catalog.Store
	if cat != nil {
		catalogs = catalog.NewStaticStore(cat)
	} else {
		catalogs = catalog.NewStore(nil)
	}
	store := storage.NewMemoryStore(cfg.Store)
	timers := timer.New(catalogs)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = store.Close()
	})

	router, err := SetupRouter(ctx, cfg, Dependencies{
		Catalogs: catalogs,
		Store:    store,
		Pantry:   pantry.NewService(store, catalogs, cfg.Store.KeyPrefix),
		Timers:   timers,
	})
	require.NoError(t, err)
	return &testServer{router: router, store: store, timers: timers}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func newSession(t *testing.T, s *testServer) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	sid := decode[map[string]string](t, w)["session_id"]
	require.True(t, common.IsUUID(sid))
	return sid
}

func TestSetupRouter_MissingDependencies(t *testing.T) {
	_, err := SetupRouter(context.Background(), testConfig(), Dependencies{})
	assert.Error(t, err)
}

func TestMatch_Stateless(t *testing.T) {
	s := newTestServer(t, testCatalog())

	w := s.do(t, http.MethodPost, "/api/v1/match", map[string]interface{}{
		"selected": []string{"egg", "oat-milk"},
		"criteria": map[string]interface{}{"vegetarian_only": true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[handlers.RankingResponse](t, w)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, 2, resp.Selected)
	assert.Equal(t, "pancakes", resp.Results[0].Recipe.ID)
	assert.Equal(t, 60, resp.Results[0].Match.Percent)
	assert.Equal(t, "oat-milk", resp.Results[0].Match.Details[1].SubstituteID)
	assert.Equal(t, 0, resp.Results[1].Match.Percent)
}

func TestMatch_InvalidBody(t *testing.T) {
	s := newTestServer(t, testCatalog())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/match", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, common.ErrCodeInvalidRequest, decode[common.ErrorResponse](t, w).Code)
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t, testCatalog())

	w := s.do(t, http.MethodGet, "/api/v1/ingredients?q=egg", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ing := decode[struct {
		Ingredients []catalog.Ingredient `json:"ingredients"`
		Total       int                  `json:"total"`
	}](t, w)
	assert.Equal(t, 2, ing.Total)

	w = s.do(t, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"categories":["breakfast","dinner"]}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/recipes/ratatouille?have=tomato", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode[handlers.RecipeResponse](t, w)
	assert.Equal(t, "Ratatouille", rec.Recipe.Title)
	assert.Equal(t, 50, rec.Match.Percent)

	w = s.do(t, http.MethodGet, "/api/v1/recipes/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, common.ErrCodeRecipeNotFound, decode[common.ErrorResponse](t, w).Code)

	w = s.do(t, http.MethodGet, "/api/v1/recipes/random", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[handlers.RecipeResponse](t, w).Recipe.ID)

	w = s.do(t, http.MethodGet, "/api/v1/recipes/pancakes?session=not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRandomRecipe_EmptyCatalog(t *testing.T) {
	s := newTestServer(t, catalog.New(nil, nil, nil))
	w := s.do(t, http.MethodGet, "/api/v1/recipes/random", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogUnavailable(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/categories", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, common.ErrCodeCatalogUnavailable, decode[common.ErrorResponse](t, w).Code)

	w = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(t, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t, testCatalog())
	sid := newSession(t, s)
	base := "/api/v1/sessions/" + sid

	w := s.do(t, http.MethodPut, base+"/ingredients", map[string][]string{"ingredients": {"egg", "milk"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ingredients":["egg","milk"]}`, w.Body.String())

	w = s.do(t, http.MethodPost, base+"/ingredients/flour/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ingredients":["egg","flour","milk"],"selected":true}`, w.Body.String())

	w = s.do(t, http.MethodPost, base+"/ingredients/caviar/toggle", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, common.ErrCodeIngredientNotFound, decode[common.ErrorResponse](t, w).Code)

	w = s.do(t, http.MethodPost, base+"/favorites/ratatouille/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"favorites":["ratatouille"],"favorite":true}`, w.Body.String())

	w = s.do(t, http.MethodGet, base+"/ranking", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ranking := decode[handlers.RankingResponse](t, w)
	require.Equal(t, 2, ranking.Total)
	assert.Equal(t, "pancakes", ranking.Results[0].Recipe.ID)
	assert.Equal(t, 100, ranking.Results[0].Match.Percent)

	w = s.do(t, http.MethodGet, base+"/ranking?favorites=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ranking = decode[handlers.RankingResponse](t, w)
	require.Equal(t, 1, ranking.Total)
	assert.Equal(t, "ratatouille", ranking.Results[0].Recipe.ID)

	w = s.do(t, http.MethodGet, base+"/ranking?servings=5+", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ranking = decode[handlers.RankingResponse](t, w)
	require.Equal(t, 1, ranking.Total)
	assert.Equal(t, "ratatouille", ranking.Results[0].Recipe.ID)

	w = s.do(t, http.MethodGet, "/api/v1/recipes/pancakes?session="+sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, decode[handlers.RecipeResponse](t, w).Match.Percent)

	w = s.do(t, http.MethodDelete, base+"/ingredients", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, base+"/ingredients", nil)
	assert.JSONEq(t, `{"ingredients":[]}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/sessions/abc/ingredients", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShoppingFlow(t *testing.T) {
	s := newTestServer(t, testCatalog())
	sid := newSession(t, s)
	base := "/api/v1/sessions/" + sid

	w := s.do(t, http.MethodPut, base+"/ingredients", map[string][]string{"ingredients": {"tomato"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, base+"/shopping/from-recipe/ratatouille", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var fromRecipe struct {
		Items []string `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fromRecipe))
	assert.Equal(t, []string{"Eggplant"}, fromRecipe.Items)

	w = s.do(t, http.MethodPost, base+"/shopping", map[string][]string{"items": {"bread"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":["Eggplant","bread"]}`, w.Body.String())

	w = s.do(t, http.MethodPost, base+"/shopping", map[string][]string{"items": {}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, base+"/shopping/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "shopping-")
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	rows, err := f.GetRows("Shopping")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	_ = f.Close()

	w = s.do(t, http.MethodDelete, base+"/shopping/Eggplant", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":["bread"]}`, w.Body.String())

	w = s.do(t, http.MethodDelete, base+"/shopping", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, base+"/shopping", nil)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestTimerFlow(t *testing.T) {
	s := newTestServer(t, testCatalog())
	sid := newSession(t, s)
	base := "/api/v1/sessions/" + sid

	w := s.do(t, http.MethodGet, base+"/timers", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, base+"/timers", map[string]interface{}{"recipe_id": "pancakes", "step": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, common.ErrCodeStepHasNoTimer, decode[common.ErrorResponse](t, w).Code)

	w = s.do(t, http.MethodPost, base+"/timers", map[string]interface{}{"recipe_id": "pancakes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, base+"/timers", map[string]interface{}{"recipe_id": "pancakes", "step": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decode[timer.View](t, w)
	assert.Equal(t, timer.StatusRunning, view.Status)
	assert.InDelta(t, 600, view.RemainingSeconds, 1)

	w = s.do(t, http.MethodGet, base+"/timers", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, base+"/timers", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, s.timers.Len())
}

func TestToggle_RepeatedTogglesAlwaysApply(t *testing.T) {
	s := newTestServer(t, testCatalog())
	sid := newSession(t, s)
	base := "/api/v1/sessions/" + sid

	w := s.do(t, http.MethodPost, base+"/ingredients/egg/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ingredients":["egg"],"selected":true}`, w.Body.String())

	w = s.do(t, http.MethodPost, base+"/ingredients/egg/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ingredients":[],"selected":false}`, w.Body.String())

	w = s.do(t, http.MethodGet, base+"/ingredients", nil)
	assert.JSONEq(t, `{"ingredients":[]}`, w.Body.String())

	for _, want := range []bool{true, false} {
		w = s.do(t, http.MethodPost, base+"/favorites/pancakes/toggle", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, decode[map[string]interface{}](t, w)["favorite"])
	}
}

func TestDeduplication_RejectsRepeatedShoppingFromRecipe(t *testing.T) {
	s := newTestServer(t, testCatalog())
	sid := newSession(t, s)
	path := "/api/v1/sessions/" + sid + "/shopping/from-recipe/ratatouille"

	w := s.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	time.Sleep(60 * time.Millisecond)
	w = s.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOpsEndpoints(t *testing.T) {
	s := newTestServer(t, testCatalog())

	w := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"recipes":2`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	s.do(t, http.MethodPost, "/api/v1/match", map[string]interface{}{"selected": []string{"egg"}})
	w = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recipe_finder_rank_requests_total")

	w = s.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
