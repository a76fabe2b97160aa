// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"watchstore/internal/catalog"
	"watchstore/internal/checkout"
	"watchstore/internal/database"
	"watchstore/internal/middleware"
	"watchstore/internal/models"
	"watchstore/internal/render"
	"watchstore/internal/session"
	"watchstore/internal/storage"
	"watchstore/internal/store"
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
	user := envOr("POSTGRES_USER", "watchstore")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "watchstore")
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
		keys, _ := client.Keys(ctx, "session:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

// memObjects is an in-memory object store for upload tests.
type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte)}
}

func (m *memObjects) Put(_ context.Context, key, _ string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memObjects) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memObjects) URL(key string) string { return "https://cdn.test/" + key }

func (m *memObjects) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB         *sql.DB
	Valkey     *redis.Client
	Renderer   *render.Renderer
	Sessions   *session.Store
	Users      *store.UserStore
	Categories *store.CategoryStore
	Products   *store.ProductStore
	Catalog    *catalog.Service
	Carts      *checkout.CartService
	Orders     *checkout.OrderService
	Objects    *memObjects
	Admin      *Admin
	Auth       *Auth
	Public     *Public
	Shop       *Shop
}

// newTestEnv creates a complete test environment with all handler
// dependencies. The catalog runs without the navigation cache so fixtures
// written straight to the database are visible at once.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	objects := newMemObjects()
	images := storage.NewImages(objects)

	renderer, err := render.New(images)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	users := store.NewUserStore(db)
	categories := store.NewCategoryStore(db)
	products := store.NewProductStore(db)
	carts := store.NewCartStore(db)
	orders := store.NewOrderStore(db)

	catalogSvc := catalog.NewService(categories, products, nil, 4)
	cartSvc := checkout.NewCartService(carts, products)
	orderSvc := checkout.NewOrderService(orders, carts)

	shell := NewShell(renderer, catalogSvc, cartSvc)

	return &testEnv{
		DB:         db,
		Valkey:     vk,
		Renderer:   renderer,
		Sessions:   sessions,
		Users:      users,
		Categories: categories,
		Products:   products,
		Catalog:    catalogSvc,
		Carts:      cartSvc,
		Orders:     orderSvc,
		Objects:    objects,
		Admin:      NewAdmin(renderer, catalogSvc, orderSvc, users, images),
		Auth:       NewAuth(shell, sessions, users),
		Public:     NewPublic(shell, 12),
		Shop:       NewShop(shell, orderSvc),
	}
}

// uniq returns a short random suffix so tests sharing the database never
// collide on slugs, emails or brands.
func uniq() string {
	return uuid.NewString()[:8]
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID, email string, role models.Role, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParamAndSession adds both chi URL param and session to a request.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	r = withChiURLParam(r, key, value)
	return r.WithContext(ctxWithSession(r.Context(), sess))
}

// createTestUser inserts a user with the given role and registers its
// cleanup. The password is "password123".
func (env *testEnv) createTestUser(t *testing.T, role models.Role) *models.User {
	t.Helper()
	email := "handlers-" + uniq() + "@handlers-test.local"
	u, err := env.Users.Create(email, "password123", "Jean", "Test", role)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM orders WHERE user_id = $1", u.ID)
		env.DB.Exec("DELETE FROM users WHERE id = $1", u.ID)
	})
	return u
}

// createTestCategory inserts a category and registers its cleanup. A nil
// parent creates a main category.
func (env *testEnv) createTestCategory(t *testing.T, name string, parent *models.Category, active bool) *models.Category {
	t.Helper()
	c := &models.Category{
		Name:     name + " " + uniq(),
		Slug:     "handlers-test-" + uniq(),
		IsActive: active,
	}
	if parent == nil {
		c.IsMainCategory = true
		mt := models.MainTypeUnisex
		c.MainCategoryType = &mt
	} else {
		c.ParentID = &parent.ID
	}
	created, err := env.Categories.Create(c)
	if err != nil {
		t.Fatalf("create test category: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM products WHERE category_id = $1", created.ID)
		env.DB.Exec("DELETE FROM categories WHERE parent_id = $1", created.ID)
		env.DB.Exec("DELETE FROM categories WHERE id = $1", created.ID)
	})
	return created
}

// createTestProduct inserts an active product and registers its cleanup.
func (env *testEnv) createTestProduct(t *testing.T, name, brand, price string, stock int, cat *models.Category) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Brand:    brand,
		Model:    "M-" + uniq(),
		Stock:    stock,
		IsActive: true,
	}
	if cat != nil {
		p.CategoryID = &cat.ID
	}
	created, err := env.Products.Create(p)
	if err != nil {
		t.Fatalf("create test product: %v", err)
	}
	t.Cleanup(func() { env.DB.Exec("DELETE FROM products WHERE id = $1", created.ID) })
	return created
}
