package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/gotham-app/backend/internal/adapters/stores"
	"github.com/gotham-app/backend/internal/api/middleware"
	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/infrastructure/observability"
	"github.com/gotham-app/backend/pkg/config"
	apperrors "github.com/gotham-app/backend/pkg/errors"
)

// Ids are ObjectID hex so the same fixtures load into every driver
var fixtures = []entities.Place{
	{ID: "65a000000000000000000001", Text: "Kaffeebar Mitte", Percent: 45, Capacity: 40, Tags: []string{"coffee", "wifi"}, Address: "Torstraße 1, Berlin", Location: entities.NewLocation(52.5290, 13.4010)},
	{ID: "65a000000000000000000002", Text: "Late Night Bar", Percent: 82, Capacity: 120, Tags: []string{"drinks", "music"}, Address: "Oranienstraße 20, Berlin", Location: entities.NewLocation(52.5010, 13.4190)},
	{ID: "65a000000000000000000003", Text: "Stadtbibliothek Reading Room", Percent: 12, Capacity: 80, Tags: []string{"quiet", "books"}, Address: "Breite Straße 30, Berlin", Location: entities.NewLocation(52.5160, 13.4030)},
	{ID: "65a000000000000000000004", Text: "Park Cafe", Percent: 35, Capacity: 60, Tags: []string{"coffee", "outdoor"}, Address: "Tiergarten, Berlin", Location: entities.NewLocation(52.5145, 13.3501)},
	{ID: "65a000000000000000000005", Text: "Climbing Hall", Percent: 58, Capacity: 150, Tags: []string{"sport"}, Address: "Wiesenweg 5, Berlin", Location: entities.NewLocation(52.4930, 13.4600)},
	{ID: "65a000000000000000000006", Text: "Pop-up Market", Percent: 20, Tags: []string{"food"}, Description: "Location announced weekly"},
}

func main() {
	tokenUser := flag.String("token-user", "", "print a signed bearer token for this user id")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("gotham-seed", cfg.Server.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := stores.Open(ctx, cfg, time.Now)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}
	defer store.Close(context.Background())

	base := time.Now().UTC().Add(-time.Duration(len(fixtures)) * time.Hour)
	created, skipped := 0, 0
	for i := range fixtures {
		place := fixtures[i]
		place.CreatedAt = base.Add(time.Duration(i) * time.Hour)

		if err := store.Places.Create(ctx, &place); err != nil {
			if apperrors.IsConflict(err) {
				skipped++
				continue
			}
			log.Fatal().Err(err).Str("place_id", place.ID).Msg("failed to seed place")
		}
		created++
	}
	log.Info().Str("driver", store.Driver).Int("created", created).Int("skipped", skipped).Msg("seed complete")

	if *tokenUser != "" {
		auth := middleware.NewAuthenticator(cfg.Auth)
		token, err := auth.Sign(middleware.Claims{
			UserID:           *tokenUser,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour))},
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to sign token")
		}
		fmt.Println(token)
	}
}
