// Command seed-categories populates the global event_categories table.
// It needs the service role key since category rows are read-only for
// normal clients.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/planbook-app/planbook/internal/config"
	"github.com/planbook-app/planbook/internal/store"
	"github.com/planbook-app/planbook/internal/supabase"
)

func strPtr(s string) *string { return &s }

func defaultCategories() []store.CategoryCreate {
	return []store.CategoryCreate{
		{Name: "Wedding", Description: strPtr("Weddings and engagement parties"), Icon: strPtr("ring")},
		{Name: "Birthday", Description: strPtr("Birthday celebrations"), Icon: strPtr("cake")},
		{Name: "Anniversary", Description: strPtr("Anniversary celebrations"), Icon: strPtr("heart")},
		{Name: "Baby Shower", Description: strPtr("Baby showers and gender reveals"), Icon: strPtr("baby")},
		{Name: "Graduation", Description: strPtr("Graduation parties"), Icon: strPtr("graduation-cap")},
		{Name: "Conference", Description: strPtr("Conferences and corporate events"), Icon: strPtr("briefcase")},
		{Name: "Holiday", Description: strPtr("Holiday gatherings"), Icon: strPtr("gift")},
		{Name: "Reunion", Description: strPtr("Family and class reunions"), Icon: strPtr("users")},
		{Name: "Other", Description: strPtr("Everything else"), Icon: strPtr("calendar")},
	}
}

func main() {
	envFile := flag.String("env", ".env", "Path to .env with Supabase credentials")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("load env (%s): %v (continuing with process environment)", *envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.SupabaseServiceKey == "" {
		log.Fatalf("SUPABASE_SERVICE_KEY is required to seed categories")
	}

	client, err := supabase.New(supabase.Config{
		ProjectURL: cfg.SupabaseURL,
		AnonKey:    cfg.SupabaseAnonKey,
		ServiceKey: cfg.SupabaseServiceKey,
	})
	if err != nil {
		log.Fatalf("supabase client: %v", err)
	}

	repo := store.NewRepository(client)

	created, err := repo.SeedCategories(context.Background(), defaultCategories())
	if err != nil {
		log.Fatalf("seed categories: %v", err)
	}

	fmt.Printf("Seeded %d event categories\n", len(created))
	for _, c := range created {
		fmt.Printf("  %d  %s\n", c.ID, c.Name)
	}
}
