package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func models(ps []*Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ModelNumber)
	}
	return out
}

func TestListProducts_PagesThroughCategory(t *testing.T) {
	repo := newFakeRepo()
	wall := repo.addCategory("Wall Clocks", true, false)
	other := repo.addCategory("Table Clocks", true, false)
	for i := 1; i <= 15; i++ {
		repo.addProduct(fmt.Sprintf("WC-%03d", i), float64(100*i), wall.ID, true)
	}
	repo.addProduct("TC-001", 50, other.ID, true)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	first, err := svc.ListProducts(ctx, QueryState{CategoryID: wall.ID})
	require.NoError(t, err)
	assert.Len(t, first.Products, 12)
	assert.Equal(t, 15, first.TotalCount)
	assert.Equal(t, 2, first.TotalPages)
	assert.True(t, first.HasMore)
	assert.Equal(t, "WC-001", first.Products[0].ModelNumber)
	require.NotNil(t, first.Products[0].Category)
	assert.Equal(t, "Wall Clocks", first.Products[0].Category.Name)

	second, err := svc.ListProducts(ctx, QueryState{CategoryID: wall.ID, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"WC-013", "WC-014", "WC-015"}, models(second.Products))
	assert.Equal(t, 15, second.TotalCount)
	assert.False(t, second.HasMore)

	beyond, err := svc.ListProducts(ctx, QueryState{CategoryID: wall.ID, Page: 5})
	require.NoError(t, err)
	assert.Empty(t, beyond.Products)
	assert.Equal(t, 15, beyond.TotalCount)
	assert.False(t, beyond.HasMore)
}

func TestListProducts_SearchIsCaseInsensitiveSubstring(t *testing.T) {
	repo := newFakeRepo()
	cat := repo.addCategory("Wall Clocks", true, false)
	repo.addProduct("WC-100", 10, cat.ID, true)
	repo.addProduct("wc-101", 10, cat.ID, true)
	repo.addProduct("AWC-1", 10, cat.ID, true)
	repo.addProduct("TC-200", 10, cat.ID, true)
	repo.addProduct("WC-199", 10, cat.ID, false)
	svc, _ := newTestService(repo)

	page, err := svc.ListProducts(context.Background(), QueryState{SearchQuery: "wc-1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"WC-100", "wc-101", "AWC-1"}, models(page.Products))
	assert.Equal(t, 3, page.TotalCount)

	none, err := svc.ListProducts(context.Background(), QueryState{SearchQuery: "zz"})
	require.NoError(t, err)
	assert.Empty(t, none.Products)
	assert.Zero(t, none.TotalCount)
	assert.Zero(t, none.TotalPages)
}

func TestListProducts_SortOrders(t *testing.T) {
	repo := newFakeRepo()
	cat := repo.addCategory("Wall Clocks", true, false)
	repo.addProduct("B-2", 300, cat.ID, true)
	repo.addProduct("A-1", 100, cat.ID, true)
	repo.addProduct("C-3", 200, cat.ID, true)
	repo.addProduct("D-4", 200, cat.ID, true)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	tests := []struct {
		sort SortOption
		ok   func(a, b *Product) bool
	}{
		{SortModelNumber, func(a, b *Product) bool { return a.ModelNumber <= b.ModelNumber }},
		{SortMRPAsc, func(a, b *Product) bool { return a.MRP <= b.MRP }},
		{SortMRPDesc, func(a, b *Product) bool { return a.MRP >= b.MRP }},
		{SortNewest, func(a, b *Product) bool { return !a.CreatedAt.Before(b.CreatedAt) }},
		{SortOption("bogus"), func(a, b *Product) bool { return a.ModelNumber <= b.ModelNumber }},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			page, err := svc.ListProducts(ctx, QueryState{SortBy: tt.sort})
			require.NoError(t, err)
			require.Len(t, page.Products, 4)
			for i := 1; i < len(page.Products); i++ {
				assert.True(t, tt.ok(page.Products[i-1], page.Products[i]),
					"%s before %s", page.Products[i-1].ModelNumber, page.Products[i].ModelNumber)
			}

			again, err := svc.ListProducts(ctx, QueryState{SortBy: tt.sort})
			require.NoError(t, err)
			assert.Equal(t, models(page.Products), models(again.Products), "repeatable")
		})
	}
}

func TestListProducts_ExcludesInactive(t *testing.T) {
	repo := newFakeRepo()
	cat := repo.addCategory("Wall Clocks", true, false)
	for i := range 30 {
		repo.addProduct(fmt.Sprintf("M-%02d", i), 1, cat.ID, i%3 != 0)
	}
	svc, _ := newTestService(repo)

	for page := 0; page < 3; page++ {
		p, err := svc.ListProducts(context.Background(), QueryState{Page: page})
		require.NoError(t, err)
		assert.Equal(t, 20, p.TotalCount)
		for _, prod := range p.Products {
			assert.True(t, prod.IsActive)
		}
	}
}

func TestListProducts_Errors(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	_, err := svc.ListProducts(context.Background(), QueryState{Page: -1})
	assert.ErrorIs(t, err, ErrInvalidPage)
	assert.Zero(t, repo.queryCalls)

	repo.queryErr = errors.New("boom")
	_, err = svc.ListProducts(context.Background(), QueryState{})
	assert.ErrorIs(t, err, repo.queryErr)
}

func TestProductsByCategories_CachedPerSet(t *testing.T) {
	repo := newFakeRepo()
	wall := repo.addCategory("Wall Clocks", true, false)
	table := repo.addCategory("Table Clocks", true, false)
	repo.addProduct("W-2", 1, wall.ID, true)
	repo.addProduct("T-1", 1, table.ID, true)
	repo.addProduct("W-1", 1, wall.ID, true)
	repo.addProduct("W-0", 1, wall.ID, false)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	got, err := svc.ProductsByCategories(ctx, []string{wall.ID, table.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"T-1", "W-1", "W-2"}, models(got))
	assert.Equal(t, 1, repo.queryCalls)

	// Same set in a different order hits the cache.
	_, err = svc.ProductsByCategories(ctx, []string{table.ID, wall.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.queryCalls)

	onlyWall, err := svc.ProductsByCategories(ctx, []string{wall.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"W-1", "W-2"}, models(onlyWall))
	assert.Equal(t, 2, repo.queryCalls)

	all, err := svc.ProductsByCategories(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestProductsByCategories_InvalidatedByWrites(t *testing.T) {
	repo := newFakeRepo()
	wall := repo.addCategory("Wall Clocks", true, false)
	repo.addProduct("W-1", 1, wall.ID, true)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.ProductsByCategories(ctx, []string{wall.ID})
	require.NoError(t, err)

	created, err := svc.CreateProduct(ctx, ProductInput{ModelNumber: "W-2", MRP: 10, CategoryID: wall.ID})
	require.NoError(t, err)

	got, err := svc.ProductsByCategories(ctx, []string{wall.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"W-1", "W-2"}, models(got))
	assert.Equal(t, 2, repo.queryCalls)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))
	got, err = svc.ProductsByCategories(ctx, []string{wall.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"W-1"}, models(got))
}

func TestCreateProduct(t *testing.T) {
	repo := newFakeRepo()
	cat := repo.addCategory("Wall Clocks", true, false)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, ProductInput{ModelNumber: "  WC-1 ", MRP: 499.5, CategoryID: cat.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "WC-1", p.ModelNumber)
	assert.True(t, p.IsActive, "defaults to active")
	assert.False(t, p.CreatedAt.IsZero())

	inactive := false
	p2, err := svc.CreateProduct(ctx, ProductInput{ModelNumber: "WC-2", CategoryID: cat.ID, IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, p2.IsActive)

	_, err = svc.CreateProduct(ctx, ProductInput{ModelNumber: "WC-1", CategoryID: cat.ID})
	assert.ErrorIs(t, err, ErrDuplicate)

	for _, in := range []ProductInput{
		{ModelNumber: " ", CategoryID: cat.ID},
		{ModelNumber: "X", CategoryID: cat.ID, MRP: -1},
		{ModelNumber: "X"},
	} {
		_, err = svc.CreateProduct(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidProduct)
	}
}

func TestUpdateProduct(t *testing.T) {
	repo := newFakeRepo()
	cat := repo.addCategory("Wall Clocks", true, false)
	p := repo.addProduct("WC-1", 100, cat.ID, true)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	mrp := 150.0
	active := false
	updated, err := svc.UpdateProduct(ctx, p.ID, ProductPatch{MRP: &mrp, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, "WC-1", updated.ModelNumber)
	assert.Equal(t, 150.0, updated.MRP)
	assert.False(t, updated.IsActive)

	page, err := svc.ListProducts(ctx, QueryState{})
	require.NoError(t, err)
	assert.Empty(t, page.Products)

	blank := ""
	_, err = svc.UpdateProduct(ctx, p.ID, ProductPatch{ModelNumber: &blank})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = svc.UpdateProduct(ctx, "missing", ProductPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, "missing"), ErrNotFound)
}

func TestCategoryWritesInvalidateProvider(t *testing.T) {
	repo := newFakeRepo()
	repo.addCategory("Wall Clocks", true, false)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)

	created, err := svc.CreateCategory(ctx, CategoryInput{Name: " Alarm Clocks "})
	require.NoError(t, err)
	assert.Equal(t, "Alarm Clocks", created.Name)
	assert.True(t, created.IsActive)

	cats, err = svc.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	hide := true
	_, err = svc.UpdateCategory(ctx, created.ID, CategoryPatch{HideFromDisplay: &hide})
	require.NoError(t, err)
	cats, err = svc.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidCategory)
	_, err = svc.UpdateCategory(ctx, "missing", CategoryPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImportProducts(t *testing.T) {
	repo := newFakeRepo()
	repo.addCategory("Wall Clocks", true, false)
	repo.addCategory("Table Clocks", true, false)
	svc, _ := newTestService(repo)

	csvData := strings.Join([]string{
		"Model_Number,Category,MRP,is_active",
		"WC-1,wall clocks,499,",
		"WC-2,Wall Clocks,599.50,false",
		"",
		",Wall Clocks,10,",
		"TC-1,Cuckoo,10,",
		"TC-2,Table Clocks,abc,",
		"TC-3,Table Clocks,10,maybe",
		"TC-4,Table Clocks,10,true",
	}, "\n")

	result, err := svc.ImportProducts(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	require.Len(t, result.Skipped, 4)
	assert.Equal(t, 5, result.Skipped[0].Line)
	assert.Contains(t, result.Skipped[0].Reason, "model_number")
	assert.Equal(t, 6, result.Skipped[1].Line)
	assert.Contains(t, result.Skipped[1].Reason, "Cuckoo")
	assert.Contains(t, result.Skipped[2].Reason, "mrp")
	assert.Contains(t, result.Skipped[3].Reason, "is_active")

	all, err := svc.ListAllProducts(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"WC-1", "WC-2", "TC-4"}, models(all))
	for _, p := range all {
		if p.ModelNumber == "WC-2" {
			assert.False(t, p.IsActive)
			assert.Equal(t, 599.5, p.MRP)
		}
	}
}

func TestImportProducts_Rejects(t *testing.T) {
	repo := newFakeRepo()
	repo.addCategory("Wall Clocks", true, false)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	for name, data := range map[string]string{
		"empty":           "",
		"missing columns": "model_number,mrp\nWC-1,10\n",
		"no valid rows":   "model_number,category,mrp\nWC-1,Nope,10\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ImportProducts(ctx, strings.NewReader(data))
			assert.ErrorIs(t, err, ErrInvalidCSV)
		})
	}

	repo.addProduct("WC-1", 1, repo.categories[0].ID, true)
	_, err := svc.ImportProducts(ctx, strings.NewReader("model_number,category,mrp\nWC-9,Wall Clocks,1\nWC-1,Wall Clocks,1\n"))
	assert.ErrorIs(t, err, ErrDuplicate)
	all, _ := svc.ListAllProducts(ctx)
	assert.Len(t, all, 1, "import is all or nothing")
}

func TestExportProducts(t *testing.T) {
	repo := newFakeRepo()
	cat := repo.addCategory("Wall Clocks", true, false)
	repo.addProduct("WC-1", 499, cat.ID, true)
	repo.addProduct("WC-2", 12.5, cat.ID, false)
	svc, _ := newTestService(repo)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportProducts(context.Background(), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "model_number,category,mrp,is_active,created_at", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "WC-2,Wall Clocks,12.50,false,2024-01-01T00:"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "WC-1,Wall Clocks,499.00,true,"), lines[2])

	// Round trip through import into an empty catalog.
	fresh := newFakeRepo()
	fresh.addCategory("Wall Clocks", true, false)
	freshSvc, _ := newTestService(fresh)
	result, err := freshSvc.ImportProducts(context.Background(), strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	got := models(fresh.products)
	sort.Strings(got)
	assert.Equal(t, []string{"WC-1", "WC-2"}, got)
}

func TestImportProducts_SkipsOverlongModelNumber(t *testing.T) {
	repo := newFakeRepo()
	repo.addCategory("Wall Clocks", true, false)
	svc, _ := newTestService(repo)

	long := strings.Repeat("W", 101)
	data := "model_number,category,mrp\n" + long + ",Wall Clocks,10\nWC-1,Wall Clocks,10\n"
	result, err := svc.ImportProducts(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 2, result.Skipped[0].Line)
	assert.Equal(t, "model_number failed max", result.Skipped[0].Reason)
}

func TestValidateProduct(t *testing.T) {
	assert.NoError(t, validateProduct(&Product{ModelNumber: "WC-1", CategoryID: "c1"}))

	err := validateProduct(&Product{CategoryID: "c1"})
	assert.ErrorIs(t, err, ErrInvalidProduct)
	assert.EqualError(t, err, "invalid product: model_number is required")

	err = validateProduct(&Product{ModelNumber: "WC-1", CategoryID: "c1", MRP: -0.5})
	assert.EqualError(t, err, "invalid product: mrp must not be negative")

	err = validateProduct(&Product{ModelNumber: "WC-1"})
	assert.EqualError(t, err, "invalid product: category_id is required")
}

// gatedRepo answers its first QueryProducts from the data at call time,
// then holds the answer until release is closed.
type gatedRepo struct {
	*fakeRepo
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (r *gatedRepo) QueryProducts(ctx context.Context, q QueryDescriptor) ([]*Product, int, error) {
	products, count, err := r.fakeRepo.QueryProducts(ctx, q)
	if r.calls.Add(1) == 1 {
		close(r.started)
		<-r.release
	}
	return products, count, err
}

func TestProductsByCategories_WriteDuringFillIsNotCachedStale(t *testing.T) {
	repo := newFakeRepo()
	wall := repo.addCategory("Wall Clocks", true, false)
	repo.addProduct("W-1", 1, wall.ID, true)
	gated := &gatedRepo{fakeRepo: repo, started: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(gated, NewCategoryProvider(gated, discardLogger()), NewMemoryProductSetCache(0), discardLogger())
	ctx := context.Background()

	inFlight := make(chan []*Product)
	go func() {
		got, err := svc.ProductsByCategories(ctx, []string{wall.ID})
		assert.NoError(t, err)
		inFlight <- got
	}()
	<-gated.started

	_, err := svc.CreateProduct(ctx, ProductInput{ModelNumber: "W-2", MRP: 10, CategoryID: wall.ID})
	require.NoError(t, err)

	got, err := svc.ProductsByCategories(ctx, []string{wall.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"W-1", "W-2"}, models(got))

	close(gated.release)
	assert.Equal(t, []string{"W-1"}, models(<-inFlight))

	got, err = svc.ProductsByCategories(ctx, []string{wall.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"W-1", "W-2"}, models(got))
}

func TestListProducts_Idempotent(t *testing.T) {
	repo := newFakeRepo()
	wall := repo.addCategory("Wall Clocks", true, false)
	tie := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		p := repo.addProduct(fmt.Sprintf("WC-%02d", i), float64(100*(i%3)), wall.ID, true)
		if i%2 == 0 {
			p.CreatedAt = tie
		}
	}
	// Storage order no longer follows id order, so only the id tie-break keeps ties stable.
	slices.Reverse(repo.products)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	for _, sortBy := range []SortOption{SortModelNumber, SortMRPAsc, SortMRPDesc, SortNewest} {
		t.Run(string(sortBy), func(t *testing.T) {
			state := QueryState{CategoryID: wall.ID, SortBy: sortBy}

			first, err := svc.ListProducts(ctx, state)
			require.NoError(t, err)
			again, err := svc.ListProducts(ctx, state)
			require.NoError(t, err)
			assert.Equal(t, first.Products, again.Products)
			assert.Equal(t, first.TotalCount, again.TotalCount)

			state.Page = 1
			next, err := svc.ListProducts(ctx, state)
			require.NoError(t, err)
			nextAgain, err := svc.ListProducts(ctx, state)
			require.NoError(t, err)
			assert.Equal(t, next.Products, nextAgain.Products)

			require.Len(t, first.Products, PageSize)
			require.Len(t, next.Products, 20-PageSize)
			seen := map[string]bool{}
			for _, p := range append(slices.Clone(first.Products), next.Products...) {
				assert.False(t, seen[p.ID], "%s on both pages", p.ModelNumber)
				seen[p.ID] = true
			}
			assert.Len(t, seen, 20)
		})
	}
}
