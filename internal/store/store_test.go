// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"watchstore/internal/database"
	"watchstore/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "watchstore")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "watchstore")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// uniq returns a short random suffix so parallel packages sharing the
// database never collide on slugs, emails or brands.
func uniq() string {
	return uuid.NewString()[:8]
}

// cleanUsers removes test users by email. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM orders WHERE user_id IN (SELECT id FROM users WHERE email = $1)", email)
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// createTestUser inserts a customer and registers its cleanup.
func createTestUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()
	email := "store-" + uniq() + "@store-test.local"
	u, err := NewUserStore(db).Create(email, "pass", "Test", "User", models.RoleCustomer)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { cleanUsers(t, db, email) })
	return u
}

// createTestCategory inserts a category and registers its cleanup.
// A nil parent creates a main category.
func createTestCategory(t *testing.T, db *sql.DB, name string, parent *models.Category, active bool) *models.Category {
	t.Helper()
	c := &models.Category{
		Name:     name,
		Slug:     "store-test-" + uniq(),
		IsActive: active,
	}
	if parent == nil {
		c.IsMainCategory = true
		mt := models.MainTypeUnisex
		c.MainCategoryType = &mt
	} else {
		c.ParentID = &parent.ID
	}
	created, err := NewCategoryStore(db).Create(c)
	if err != nil {
		t.Fatalf("create test category: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM products WHERE category_id = $1", created.ID)
		db.Exec("DELETE FROM categories WHERE parent_id = $1", created.ID)
		db.Exec("DELETE FROM categories WHERE id = $1", created.ID)
	})
	return created
}

// createTestProduct inserts a product and registers its cleanup.
func createTestProduct(t *testing.T, db *sql.DB, name, brand, price string, stock int, cat *models.Category) *models.Product {
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
	created, err := NewProductStore(db).Create(p)
	if err != nil {
		t.Fatalf("create test product: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM products WHERE id = $1", created.ID) })
	return created
}
