package pantry

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"recipe-finder/internal/core/catalog"
	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/infrastructure/storage"
	"recipe-finder/internal/pkg/common"
)

func testCatalog() *catalog.Catalog {
	ingredients := []catalog.Ingredient{
		{ID: "egg", Name: "Egg"},
		{ID: "milk", Name: "Milk"},
		{ID: "flour", Name: "Flour"},
		{ID: "oat-milk", Name: "Oat milk"},
	}
	recipes := []catalog.Recipe{
		{
			ID:          "pancakes",
			Title:       "Pancakes",
			TimeMinutes: 20,
			Ingredients: []catalog.RecipeIngredient{
				{ID: "egg", Name: "Egg", Required: true},
				{ID: "milk", Name: "Milk", Required: true},
				{ID: "flour", Name: "Flour", Required: true},
			},
		},
	}
	return catalog.New(ingredients, recipes, catalog.SubstitutionTable{"milk": {"oat-milk"}})
}

func newService(t *testing.T) *Service {
	t.Helper()
	store := storage.NewMemoryStore(config.StoreConfig{MaxKeys: 100, TTL: time.Hour})
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, catalog.NewStaticStore(testCatalog()), "fc")
}

func TestService_Key(t *testing.T) {
	s := newService(t)
	assert.Equal(t, "fc:abc:ingredients", s.Key("abc", KindIngredients))
	assert.Equal(t, "fc:abc:shopping", s.Key("abc", KindShopping))
}

func TestService_SelectionLifecycle(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	sel, err := s.Selection(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, sel.IsEmpty())

	sel, on, err := s.ToggleIngredient(ctx, "s1", "egg")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"egg"}, sel.IDs())

	sel, err = s.SetSelection(ctx, "s1", []string{"milk", "flour", "milk"})
	require.NoError(t, err)
	assert.Equal(t, []string{"flour", "milk"}, sel.IDs())

	sel, on, err = s.ToggleIngredient(ctx, "s1", "milk")
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, []string{"flour"}, sel.IDs())

	stored, err := s.Selection(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"flour"}, stored.IDs())

	other, err := s.Selection(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())

	require.NoError(t, s.ClearSelection(ctx, "s1"))
	stored, err = s.Selection(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, stored.IsEmpty())
}

func TestService_UnknownIngredientRejected(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.SetSelection(ctx, "s1", []string{"egg", "caviar"})
	assert.True(t, errors.Is(err, common.ErrIngredientNotFound))

	_, _, err = s.ToggleIngredient(ctx, "s1", "caviar")
	assert.True(t, errors.Is(err, common.ErrIngredientNotFound))

	sel, err := s.Selection(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, sel.IsEmpty())
}

func TestService_ToggleFavorite(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	list, on, err := s.ToggleFavorite(ctx, "s1", "pancakes")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"pancakes"}, list)

	set, err := s.FavoriteSet(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, set.Has("pancakes"))

	list, on, err = s.ToggleFavorite(ctx, "s1", "pancakes")
	require.NoError(t, err)
	assert.False(t, on)
	assert.Empty(t, list)

	_, _, err = s.ToggleFavorite(ctx, "s1", "nope")
	assert.True(t, errors.Is(err, common.ErrRecipeNotFound))
}

func TestService_ShoppingList(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	list, err := s.AddShoppingItems(ctx, "s1", []string{" eggs ", "bread", "eggs"})
	require.NoError(t, err)
	assert.Equal(t, []string{"eggs", "bread"}, list)

	_, err = s.AddShoppingItems(ctx, "s1", []string{"  "})
	assert.True(t, errors.Is(err, common.ErrShoppingItemInvalid))

	list, err = s.RemoveShoppingItem(ctx, "s1", "eggs")
	require.NoError(t, err)
	assert.Equal(t, []string{"bread"}, list)

	list, err = s.RemoveShoppingItem(ctx, "s1", "absent")
	require.NoError(t, err)
	assert.Equal(t, []string{"bread"}, list)

	require.NoError(t, s.ClearShopping(ctx, "s1"))
	list, err = s.ShoppingList(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_AddMissingFromRecipe(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.SetSelection(ctx, "s1", []string{"egg", "oat-milk"})
	require.NoError(t, err)
	_, err = s.AddShoppingItems(ctx, "s1", []string{"Flour"})
	require.NoError(t, err)

	list, result, err := s.AddMissingFromRecipe(ctx, "s1", "pancakes")
	require.NoError(t, err)
	assert.Equal(t, 60, result.Percent)
	assert.Equal(t, []string{"Flour"}, list)
	require.Len(t, result.Missing(), 1)

	_, err = s.SetSelection(ctx, "s1", nil)
	require.NoError(t, err)
	list, _, err = s.AddMissingFromRecipe(ctx, "s1", "pancakes")
	require.NoError(t, err)
	assert.Equal(t, []string{"Flour", "Egg", "Milk"}, list)

	_, _, err = s.AddMissingFromRecipe(ctx, "s1", "nope")
	assert.True(t, errors.Is(err, common.ErrRecipeNotFound))
}

func TestService_CatalogUnavailable(t *testing.T) {
	store := storage.NewMemoryStore(config.StoreConfig{MaxKeys: 10})
	defer store.Close()
	s := NewService(store, catalog.NewStore(nil), "fc")

	_, err := s.SetSelection(context.Background(), "s1", []string{"egg"})
	assert.True(t, errors.Is(err, common.ErrCatalogUnavailable))
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]string, error) {
	return nil, errors.New("connection refused")
}
func (failingStore) Set(context.Context, string, []string) error {
	return errors.New("connection refused")
}
func (failingStore) Delete(context.Context, string) error { return nil }
func (failingStore) Ping(context.Context) error { return errors.New("connection refused") }
func (failingStore) Close() error { return nil }

func TestService_StorageErrors(t *testing.T) {
	s := NewService(failingStore{}, catalog.NewStaticStore(testCatalog()), "fc")
	ctx := context.Background()

	_, err := s.Selection(ctx, "s1")
	assert.True(t, errors.Is(err, common.ErrStorage))
	assert.Contains(t, err.Error(), "connection refused")

	_, err = s.SetSelection(ctx, "s1", []string{"egg"})
	assert.True(t, errors.Is(err, common.ErrStorage))
}

func TestWriteShoppingXLSX(t *testing.T) {
	data, err := WriteShoppingXLSX([]string{"eggs", "bread"})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(shoppingSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"#", "item", "done"}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "eggs", rows[1][1])
	assert.Equal(t, "bread", rows[2][1])
}

func TestExportShoppingXLSX_Empty(t *testing.T) {
	s := newService(t)
	data, err := s.ExportShoppingXLSX(context.Background(), "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
