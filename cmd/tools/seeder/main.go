package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-dyntax/internal/auth"
	"github.com/noah-isme/toko-dyntax/internal/db"
	dbgen "github.com/noah-isme/toko-dyntax/internal/db/gen"
	"github.com/noah-isme/toko-dyntax/internal/dyntax"
	"github.com/noah-isme/toko-dyntax/internal/obs"
	"github.com/noah-isme/toko-dyntax/internal/settings"
)

type seedCategory struct {
	Name string
	Slug string
}

type seedProduct struct {
	Title      string
	Slug       string
	Price      string
	Categories []string
}

var categories = []seedCategory{
	{"Beverages", "beverages"},
	{"Snacks", "snacks"},
	{"Household", "household"},
	{"Plastic Packaging", "plastic-packaging"},
	{"Seasonal", "seasonal"},
}

var products = []seedProduct{
	{"Bottled Water 600ml", "bottled-water-600ml", "0.80", []string{"beverages", "plastic-packaging"}},
	{"Iced Tea 350ml", "iced-tea-350ml", "1.20", []string{"beverages", "plastic-packaging"}},
	{"Arabica Beans 250g", "arabica-beans-250g", "7.50", []string{"beverages"}},
	{"Potato Chips", "potato-chips", "2.10", []string{"snacks", "plastic-packaging"}},
	{"Cashew Mix", "cashew-mix", "4.40", []string{"snacks"}},
	{"Dish Soap 500ml", "dish-soap-500ml", "3.25", []string{"household", "plastic-packaging"}},
	{"Paper Towels", "paper-towels", "2.95", []string{"household"}},
}

func main() {
	withRule := flag.Bool("rule", false, "store an example Eco Tax rule on plastic-packaging")
	adminSubject := flag.String("admin", "admin@toko.local", "subject of the printed admin token (empty to skip)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found, relying on environment variables")
	}
	logger := obs.NewLogger(obs.LogConfig{Format: "console", Level: "info"})

	if err := run(context.Background(), logger, *withRule, *adminSubject); err != nil {
		logger.Fatal().Err(err).Msg("seed failed")
	}
}

func run(ctx context.Context, logger zerolog.Logger, withRule bool, adminSubject string) error {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if err := db.Migrate(dbURL); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	pool, err := db.NewPool(ctx, db.PoolConfig{URL: dbURL, ApplicationName: "toko-seeder"})
	if err != nil {
		return err
	}
	defer pool.Close()

	var plasticID int64
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		q := dbgen.New(tx)
		ids, err := seedCatalog(ctx, q, logger)
		if err != nil {
			return err
		}
		plasticID = ids["plastic-packaging"]
		return nil
	})
	if err != nil {
		return err
	}

	if withRule {
		store, err := settings.NewPGStore(dbgen.New(pool))
		if err != nil {
			return err
		}
		values := map[string]string{
			dyntax.FieldName:     "Eco Tax",
			dyntax.FieldAmount:   "0.25",
			dyntax.FieldCategory: fmt.Sprintf("%d", plasticID),
		}
		if err := store.Put(ctx, dyntax.OptionName, values); err != nil {
			return fmt.Errorf("store example rule: %w", err)
		}
		logger.Info().Int64("category_id", plasticID).Msg("example dynamic tax rule stored")
	}

	if adminSubject != "" {
		token, err := adminToken(adminSubject)
		if err != nil {
			return err
		}
		fmt.Println(token)
	}
	logger.Info().Int("categories", len(categories)).Int("products", len(products)).Msg("seeding completed")
	return nil
}

func seedCatalog(ctx context.Context, q *dbgen.Queries, logger zerolog.Logger) (map[string]int64, error) {
	ids := make(map[string]int64, len(categories))
	for _, c := range categories {
		row, err := q.UpsertCategory(ctx, dbgen.UpsertCategoryParams{Name: c.Name, Slug: c.Slug})
		if err != nil {
			return nil, fmt.Errorf("upsert category %s: %w", c.Slug, err)
		}
		ids[c.Slug] = row.ID
	}

	for _, p := range products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("product %s price: %w", p.Slug, err)
		}
		row, err := q.UpsertProduct(ctx, dbgen.UpsertProductParams{Title: p.Title, Slug: p.Slug, Price: price})
		if err != nil {
			return nil, fmt.Errorf("upsert product %s: %w", p.Slug, err)
		}
		for _, slug := range p.Categories {
			if err := q.LinkProductCategory(ctx, dbgen.LinkProductCategoryParams{ProductID: row.ID, CategoryID: ids[slug]}); err != nil {
				return nil, fmt.Errorf("link %s to %s: %w", p.Slug, slug, err)
			}
		}
		logger.Debug().Str("product_id", db.UUIDString(row.ID)).Str("slug", p.Slug).Msg("product seeded")
	}
	return ids, nil
}

func adminToken(subject string) (string, error) {
	tokens, err := auth.NewTokens(auth.Config{
		Secret:   os.Getenv("JWT_SECRET"),
		Issuer:   envOrDefault("JWT_ISSUER", "toko-dyntax"),
		Audience: envOrDefault("JWT_AUDIENCE", "toko-admin"),
		TTL:      24 * time.Hour,
	})
	if err != nil {
		return "", err
	}
	token, _, err := tokens.Issue(subject, []string{auth.ManageOptions})
	return token, err
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
