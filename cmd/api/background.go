package main

import (
	"context"
	"time"
)

// refreshPlaceDetailsWeekly re-pulls Google place details for every linked
// venue each Monday at 3AM KST, keeping address and opening hours current.
func (app *application) refreshPlaceDetailsWeekly() {
	go func() {
		loc, err := time.LoadLocation("Asia/Seoul")
		if err != nil {
			app.logger.Errorf("could not load Asia/Seoul timezone: %v", err)
			return
		}

		for {
			time.Sleep(time.Until(nextMonday3AM(time.Now().In(loc))))
			app.refreshAllPlaceDetails()
		}
	}()
}

func nextMonday3AM(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), 3, 0, 0, 0, now.Location())
	daysAhead := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, daysAhead)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func (app *application) refreshAllPlaceDetails() {
	ctx := context.Background()

	placeIDs, err := app.store.Venues.ListGooglePlaceIDs(ctx)
	if err != nil {
		app.logger.Errorf("place refresh: listing linked venues failed: %v", err)
		return
	}

	refreshed := 0
	for venueID, placeID := range placeIDs {
		if err := app.enrichVenue(ctx, venueID, placeID); err != nil {
			app.logger.Errorw("place refresh failed", "venue_id", venueID, "error", err)
			continue
		}
		refreshed++
	}

	app.logger.Infow("place details refreshed", "venues", refreshed, "linked", len(placeIDs))
}

// pruneStalePushTokensDaily drops Expo tokens that have not been refreshed by
// a client in 70 days.
func (app *application) pruneStalePushTokensDaily() {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if err := app.store.PushTokens.PruneStaleTokens(context.Background(), 70*24*time.Hour); err != nil {
				app.logger.Errorf("Error pruning stale push tokens: %v", err)
			} else {
				app.logger.Infof("Successfully pruned stale push tokens at %s", time.Now().Format(time.RFC1123))
			}
		}
	}()
}
