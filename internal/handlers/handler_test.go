// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL or Valkey are
// unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"bimberek/internal/cart"
	"bimberek/internal/database"
	"bimberek/internal/metrics"
	"bimberek/internal/middleware"
	"bimberek/internal/render"
	"bimberek/internal/session"
	"bimberek/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "bimberek")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "bimberek")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "cart:*", "oauth_state:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB            *sql.DB
	Valkey        *redis.Client
	Renderer      *render.Renderer
	Sessions      *session.Store
	Collector     *metrics.Collector
	UserStore     *store.UserStore
	ProductStore  *store.ProductStore
	CategoryStore *store.CategoryStore
	OrderStore    *store.OrderStore
	CommentStore  *store.CommentStore
	PostStore     *store.PostStore
	ReportStore   *store.ReportStore
	ThemeStore    *store.ThemeStore
	SliderStore   *store.SliderStore
	MediaStore    *store.MediaStore
	Carts         *cart.Manager
	Auth          *Auth
	Shop          *Shop
	Cart          *CartHandlers
	Checkout      *Checkout
	Blog          *Blog
	Comments      *Comments
	Profile       *Profile
	Moderation    *Moderation
	Admin         *Admin
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	collector := metrics.NewCollector(prometheus.NewRegistry())

	userStore := store.NewUserStore(db)
	productStore := store.NewProductStore(db)
	categoryStore := store.NewCategoryStore(db)
	orderStore := store.NewOrderStore(db)
	commentStore := store.NewCommentStore(db)
	postStore := store.NewPostStore(db)
	reportStore := store.NewReportStore(db)
	themeStore := store.NewThemeStore(db)
	sliderStore := store.NewSliderStore(db)
	mediaStore := store.NewMediaStore(db)

	carts := cart.NewManager(vk, productStore, false)

	return &testEnv{
		DB:            db,
		Valkey:        vk,
		Renderer:      renderer,
		Sessions:      sessions,
		Collector:     collector,
		UserStore:     userStore,
		ProductStore:  productStore,
		CategoryStore: categoryStore,
		OrderStore:    orderStore,
		CommentStore:  commentStore,
		PostStore:     postStore,
		ReportStore:   reportStore,
		ThemeStore:    themeStore,
		SliderStore:   sliderStore,
		MediaStore:    mediaStore,
		Carts:         carts,
		Auth:          NewAuth(renderer, sessions, userStore),
		Shop:          NewShop(renderer, productStore, categoryStore, sliderStore, commentStore, themeStore, ""),
		Cart:          NewCart(renderer, carts, productStore, themeStore),
		Checkout:      NewCheckout(renderer, carts, orderStore, themeStore, nil, collector),
		Blog:          NewBlog(renderer, postStore, commentStore, themeStore),
		Comments:      NewComments(commentStore, postStore, productStore, reportStore),
		Profile:       NewProfile(renderer, sessions, userStore, themeStore, postStore),
		Moderation:    NewModeration(renderer, commentStore, postStore, reportStore, themeStore),
		Admin:         NewAdmin(renderer, productStore, categoryStore, orderStore, userStore, themeStore, sliderStore, mediaStore, commentStore, postStore, nil),
	}
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID, handle, role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:    userID,
		Email:     handle + "@example.com",
		Handle:    handle,
		Role:      role,
		TwoFADone: twoFADone,
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParamAndSession adds both a chi URL param and a session to a request.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	return r.WithContext(ctx)
}

// cleanUsers removes test users by email.
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, e := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", e)
	}
}

// cleanProducts removes test products by slug.
func cleanProducts(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM products WHERE slug = $1", s)
	}
}

// cleanPosts removes test posts by slug.
func cleanPosts(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM posts WHERE slug = $1", s)
	}
}
