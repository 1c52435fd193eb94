package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"recipe-finder/internal/pkg/common"
)

// 三種資料資源
const (
	ResourceIngredients = "ingredients"
	ResourceRecipes     = "recipes"
	ResourceSubstitutes = "substitutes"
)

// LoadError 任一資源讀取或解析失敗
type LoadError struct {
	Resource string
	Location string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s from %s: %v", e.Resource, e.Location, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Source 提供原始資料的來源（本地目錄或 HTTP）
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
	Location(name string) string
}

// DirSource 從本地目錄讀取
type DirSource struct {
	Dir string
}

// Fetch 讀取目錄下的檔案
func (s DirSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(s.Dir, name))
}

// Location 回傳檔案路徑
func (s DirSource) Location(name string) string {
	return filepath.Join(s.Dir, name)
}

// HTTPSource 從靜態檔案伺服器讀取
type HTTPSource struct {
	client *resty.Client
}

// NewHTTPSource 建立 HTTP 來源
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &HTTPSource{client: client}
}

// Fetch 以 GET 取得資源
func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.client.R().SetContext(ctx).Get("/" + name)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

// Location 回傳完整 URL
func (s *HTTPSource) Location(name string) string {
	return s.client.BaseURL + "/" + name
}

// Files 三個資源的檔名
type Files struct {
	Ingredients string
	Recipes     string
	Substitutes string
}

// DefaultFiles 預設檔名
func DefaultFiles() Files {
	return Files{
		Ingredients: "ingredients.json",
		Recipes:     "recipes.json",
		Substitutes: "substitutes.json",
	}
}

// Loader 並行讀取三個資源並正規化為 Catalog
type Loader struct {
	source          Source
	files           Files
	defaultServings int
}

// NewLoader 建立載入器
func NewLoader(source Source, files Files, defaultServings int) *Loader {
	if defaultServings <= 0 {
		defaultServings = 4
	}
	return &Loader{source: source, files: files, defaultServings: defaultServings}
}

// Load 三個資源全部成功才回傳目錄，任一失敗即整體失敗
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	start := time.Now()

	var (
		ingredients []Ingredient
		recipes     []rawRecipe
		subs        map[string][]string
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return l.fetchInto(egCtx, ResourceIngredients, l.files.Ingredients, &ingredients)
	})
	eg.Go(func() error {
		return l.fetchInto(egCtx, ResourceRecipes, l.files.Recipes, &recipes)
	})
	eg.Go(func() error {
		return l.fetchInto(egCtx, ResourceSubstitutes, l.files.Substitutes, &subs)
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ingredients = dedupeIngredients(ingredients)
	norm := newNormalizer(ingredients, l.defaultServings)
	c := New(ingredients, norm.recipes(recipes), sanitizeSubstitutes(subs))

	common.LogInfo("食譜目錄已載入",
		zap.Int("ingredients", len(c.Ingredients)),
		zap.Int("recipes", len(c.Recipes)),
		zap.Int("substitutes", len(c.Substitutes)),
		zap.Duration("耗時", time.Since(start)),
	)
	return c, nil
}

// fetchInto 讀取單一資源並解析
func (l *Loader) fetchInto(ctx context.Context, resource, name string, v interface{}) error {
	data, err := l.source.Fetch(ctx, name)
	if err != nil {
		return &LoadError{Resource: resource, Location: l.source.Location(name), Err: err}
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &LoadError{Resource: resource, Location: l.source.Location(name), Err: errors.New("empty document")}
	}
	// 頂層 null 會解析成 nil，視同資料損壞
	if bytes.Equal(trimmed, []byte("null")) {
		return &LoadError{Resource: resource, Location: l.source.Location(name), Err: errors.New("null document")}
	}
	if err := common.ParseJSONBytes(data, v); err != nil {
		return &LoadError{Resource: resource, Location: l.source.Location(name), Err: fmt.Errorf("malformed JSON: %w", err)}
	}
	return nil
}
