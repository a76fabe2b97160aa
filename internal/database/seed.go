package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

type seedCategory struct {
	key         string
	name        string
	slug        string
	description string
	mainType    string // set for main categories only
	parent      string // key of the parent main category
	sortOrder   int
}

type seedProduct struct {
	name        string
	description string
	price       string
	brand       string
	model       string
	stock       int
	category    string
}

var seedCategories = []seedCategory{
	{key: "homme", name: "Homme", slug: "homme", mainType: "homme", sortOrder: 1,
		description: "Collection de montres pour hommes, élégance et sophistication masculine"},
	{key: "femme", name: "Femme", slug: "femme", mainType: "femme", sortOrder: 2,
		description: "Collection de montres pour femmes, raffinement et élégance féminine"},
	{key: "enfant", name: "Enfant", slug: "enfant", mainType: "enfant", sortOrder: 3,
		description: "Montres pour enfants, colorées, ludiques et résistantes"},
	{key: "mixte", name: "Mixte", slug: "mixte", mainType: "mixte", sortOrder: 4,
		description: "Montres unisexes pour tous les poignets"},

	{key: "luxe", name: "Montres de Luxe", slug: "montres-de-luxe", parent: "homme", sortOrder: 1,
		description: "Montres de prestige des grandes manufactures horlogères"},
	{key: "sport", name: "Montres Sport", slug: "montres-sport", parent: "homme", sortOrder: 2,
		description: "Montres robustes pour le sport et l'aventure"},
	{key: "aviateur", name: "Montres Aviateur", slug: "montres-aviateur", parent: "homme", sortOrder: 3,
		description: "Montres inspirées de l'aviation"},
	{key: "elegantes", name: "Montres Élégantes", slug: "montres-elegantes", parent: "femme", sortOrder: 1,
		description: "Montres raffinées pour femmes élégantes"},
	{key: "bijoux", name: "Montres Bijoux", slug: "montres-bijoux", parent: "femme", sortOrder: 2,
		description: "Montres-bijoux ornées de pierres précieuses"},
	{key: "garcon", name: "Montres Garçon", slug: "montres-garcon", parent: "enfant", sortOrder: 1,
		description: "Montres conçues pour les garçons"},
	{key: "fille", name: "Montres Fille", slug: "montres-fille", parent: "enfant", sortOrder: 2,
		description: "Montres conçues pour les filles"},
	{key: "connectees", name: "Montres Connectées", slug: "montres-connectees", parent: "mixte", sortOrder: 1,
		description: "Montres intelligentes et trackers d'activité"},
}

var seedProducts = []seedProduct{
	{"Rolex Submariner", "Montre de plongée iconique, robuste et intemporelle.", "8500.00", "Rolex", "Submariner 116610LN", 5, "luxe"},
	{"Patek Philippe Calatrava", "L'élégance horlogère dans sa forme la plus pure.", "25000.00", "Patek Philippe", "Calatrava 5196P", 2, "luxe"},
	{"Omega Speedmaster", "La Moonwatch, première montre portée sur la Lune.", "6200.00", "Omega", "Speedmaster Professional", 8, "sport"},
	{"Seiko Prospex Diver", "Étanche à 200 m avec lunette unidirectionnelle.", "450.00", "Seiko", "Prospex SRPD46K1", 15, "sport"},
	{"Casio G-Shock", "Ultra-résistante aux chocs, parfaite pour les sports extrêmes.", "180.00", "Casio", "G-Shock GA-2100", 25, "sport"},
	{"Breitling Navitimer", "L'instrument de référence des pilotes depuis 1952.", "7200.00", "Breitling", "Navitimer B01", 3, "aviateur"},
	{"Citizen Eco-Drive Pilot", "Montre solaire d'aviateur, six mois de réserve de marche.", "320.00", "Citizen", "Eco-Drive BM8180", 18, "aviateur"},
	{"Cartier Tank", "Icône au design rectangulaire intemporel.", "3200.00", "Cartier", "Tank Solo", 8, "elegantes"},
	{"Omega Constellation", "Montre féminine aux griffes emblématiques.", "5400.00", "Omega", "Constellation 29mm", 6, "bijoux"},
	{"Seiko Presage Cocktail", "Cadran texturé inspiré des cocktails.", "390.00", "Seiko", "Presage SRPB43", 10, "elegantes"},
	{"Casio Baby-G", "Montre colorée et résistante pour les plus jeunes.", "90.00", "Casio", "Baby-G BGA-280", 20, "fille"},
	{"Flik Flak Dino", "Apprendre à lire l'heure avec un dinosaure.", "45.00", "Flik Flak", "FBNP150", 30, "garcon"},
	{"Garmin Venu 3", "Montre connectée avec suivi santé avancé.", "449.99", "Garmin", "Venu 3", 12, "connectees"},
}

// Seed populates the database with development data: a default admin, a
// demo customer, the four main categories with their subcategories and a
// handful of products. It does nothing when any user already exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := seedUser(tx, "admin@watchstore.local", "admin123", "Admin", "WatchStore", "admin"); err != nil {
		return err
	}
	if err := seedUser(tx, "client@watchstore.local", "client123", "Jean", "Dupont", "customer"); err != nil {
		return err
	}

	ids := make(map[string]string, len(seedCategories))
	for _, c := range seedCategories {
		var mainType, parent any
		if c.mainType != "" {
			mainType = c.mainType
		}
		if c.parent != "" {
			parent = ids[c.parent]
		}

		var id string
		err := tx.QueryRow(`
			INSERT INTO categories (name, slug, description, sort_order, is_main_category, main_category_type, parent_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, c.name, c.slug, c.description, c.sortOrder, c.mainType != "", mainType, parent).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed insert category %s: %w", c.slug, err)
		}
		ids[c.key] = id
	}

	for _, p := range seedProducts {
		_, err := tx.Exec(`
			INSERT INTO products (name, description, price, brand, model, stock, category_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, p.name, p.description, p.price, p.brand, p.model, p.stock, ids[p.category])
		if err != nil {
			return fmt.Errorf("seed insert product %s: %w", p.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded",
		"admin", "admin@watchstore.local",
		"categories", len(seedCategories),
		"products", len(seedProducts),
	)
	return nil
}

// seedUser inserts a user with a bcrypt-hashed password. Admins start
// without 2FA and are asked to enrol on first login.
func seedUser(tx *sql.Tx, email, password, first, last, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO users (email, password_hash, first_name, last_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5, FALSE)
	`, email, string(hash), first, last, role)
	if err != nil {
		return fmt.Errorf("seed insert user %s: %w", email, err)
	}
	return nil
}
