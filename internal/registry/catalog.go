package registry

import (
	"sync"

	"github.com/draknorr/publisheriq-sub000/pkg/model"
)

var (
	allOps    = []model.FilterOp{model.OpGt, model.OpGte, model.OpLt, model.OpLte, model.OpEq, model.OpBetween}
	lowerOps  = []model.FilterOp{model.OpGt, model.OpGte}
	percent   = &model.Domain{Min: 0, Max: 100}
	growthDom = &model.Domain{Min: -100, Max: 10000}
	yearDom   = &model.Domain{Min: 1970, Max: 2100}
)

func rangeDef(id, shortcut, label, field, column, unit string, domain *model.Domain, aliases ...string) model.Definition {
	return model.Definition{
		ID:        id,
		Shortcut:  shortcut,
		Aliases:   aliases,
		Label:     label,
		Kind:      model.KindRange,
		Operators: allOps,
		Unit:      unit,
		MinField:  "min" + field,
		MaxField:  "max" + field,
		Column:    column,
		Domain:    domain,
	}
}

// DefaultCatalog returns the built-in catalog of the titles dataset.
func DefaultCatalog() Catalog {
	return Catalog{
		Definitions: []model.Definition{
			rangeDef("ccu", "ccu", "Peak CCU", "Ccu", "ccu_peak", "", &model.NonNegative, "players"),
			rangeDef("owners", "owners", "Owners", "Owners", "owners", "", &model.NonNegative),
			rangeDef("reviews", "reviews", "Reviews", "Reviews", "total_reviews", "", &model.NonNegative),
			rangeDef("score", "score", "Review score", "Score", "review_score", "%", percent, "rating"),
			rangeDef("price", "price", "Price", "Price", "price", "USD", &model.NonNegative),
			rangeDef("playtime", "playtime", "Average playtime", "Playtime", "avg_playtime_hours", "h", &model.NonNegative),
			rangeDef("year", "year", "Release year", "Year", "release_year", "", yearDom),
			rangeDef("age", "age", "Days since release", "Age", "days_since_release", "d", &model.NonNegative),
			rangeDef("growth", "growth", "7-day CCU growth", "Growth", "ccu_growth_7d", "%", growthDom),
			{
				ID:        "discount",
				Shortcut:  "discount",
				Label:     "Discount",
				Kind:      model.KindRange,
				Operators: lowerOps,
				Unit:      "%",
				MinField:  "minDiscount",
				Column:    "discount_percent",
				Domain:    percent,
			},
			{ID: "free", Shortcut: "free", Label: "Free to play", Kind: model.KindBoolean, Field: "isFree", Column: "is_free"},
			{ID: "workshop", Shortcut: "workshop", Label: "Steam Workshop", Kind: model.KindBoolean, Field: "hasWorkshop", Column: "has_workshop"},
			{ID: "ea", Shortcut: "ea", Aliases: []string{"early"}, Label: "Early Access", Kind: model.KindBoolean, Field: "earlyAccess", Column: "early_access"},
			{ID: "achievements", Shortcut: "achievements", Label: "Achievements", Kind: model.KindBoolean, Field: "hasAchievements", Column: "has_achievements"},
			{
				ID:       "deck",
				Shortcut: "deck",
				Label:    "Steam Deck",
				Kind:     model.KindSingleSelect,
				Field:    "steamDeck",
				Options:  []string{"verified", "playable", "unsupported"},
				Column:   "steam_deck",
			},
			{
				ID:       "velocity",
				Shortcut: "velocity",
				Label:    "Review velocity",
				Kind:     model.KindSingleSelect,
				Field:    "velocity",
				Options:  []string{"accelerating", "stable", "declining"},
				Column:   "velocity_tier",
			},
			{ID: "genre", Shortcut: "genre", Label: "Genre", Kind: model.KindMultiSelect, Field: "genres", Column: "genres"},
			{ID: "tag", Shortcut: "tag", Label: "Tag", Kind: model.KindMultiSelect, Field: "tags", Column: "tags"},
			{
				ID:       "platform",
				Shortcut: "platform",
				Label:    "Platform",
				Kind:     model.KindMultiSelect,
				Field:    "platforms",
				Options:  []string{"windows", "mac", "linux"},
				Column:   "platforms",
			},
			{ID: "publisher", Shortcut: "publisher", Aliases: []string{"pub"}, Label: "Publisher", Kind: model.KindSearch, Field: "publisherSearch", Column: "publisher_name"},
			{ID: "developer", Shortcut: "developer", Aliases: []string{"dev"}, Label: "Developer", Kind: model.KindSearch, Field: "developerSearch", Column: "developer_name"},
		},
		Presets: []model.Preset{
			{
				ID:     "top_games",
				Label:  "Top games",
				Values: map[string]model.Value{"minCcu": model.Number(1000)},
				Sort:   "ccu_peak",
				Order:  model.OrderDesc,
			},
			{
				ID:     "rising",
				Label:  "Rising",
				Values: map[string]model.Value{"minGrowth": model.Number(50), "minCcu": model.Number(100)},
				Sort:   "growth_7d",
				Order:  model.OrderDesc,
			},
			{
				ID:    "hidden_gems",
				Label: "Hidden gems",
				Values: map[string]model.Value{
					"minScore":   model.Number(90),
					"minReviews": model.Number(50),
					"maxReviews": model.Number(1000),
				},
				Sort:  "review_score",
				Order: model.OrderDesc,
			},
			{
				ID:     "new_releases",
				Label:  "New releases",
				Values: map[string]model.Value{"maxAge": model.Number(30)},
				Sort:   "release_date",
				Order:  model.OrderDesc,
			},
			{
				ID:     "free_hits",
				Label:  "Free hits",
				Values: map[string]model.Value{"isFree": model.Bool(true), "minCcu": model.Number(500)},
				Sort:   "ccu_peak",
				Order:  model.OrderDesc,
			},
		},
		QuickFilters: []model.QuickFilter{
			{ID: "popular", Label: "Popular", Values: map[string]model.Value{"minCcu": model.Number(1000)}},
			{ID: "hits", Label: "Hits", Values: map[string]model.Value{"minCcu": model.Number(5000)}},
			{ID: "trending", Label: "Trending", Values: map[string]model.Value{"minGrowth": model.Number(10)}},
			{ID: "well_reviewed", Label: "Well reviewed", Values: map[string]model.Value{"minScore": model.Number(80), "minReviews": model.Number(100)}},
			{ID: "free", Label: "Free", Values: map[string]model.Value{"isFree": model.Bool(true)}},
			{ID: "budget", Label: "Under $20", Values: map[string]model.Value{"maxPrice": model.Number(20)}},
			{ID: "bargain", Label: "Under $5", Values: map[string]model.Value{"maxPrice": model.Number(5)}},
			{ID: "workshop", Label: "Workshop", Values: map[string]model.Value{"hasWorkshop": model.Bool(true)}},
			{ID: "deck_verified", Label: "Deck verified", Values: map[string]model.Value{"steamDeck": model.String("verified")}},
			{ID: "linux", Label: "Linux", Values: map[string]model.Value{"platforms": model.Set("linux")}},
			{ID: "multiplayer", Label: "Multiplayer", Values: map[string]model.Value{"tags": model.Set("multiplayer")}},
		},
		ResultTypes: []string{"game", "dlc", "demo", "all"},
		SortFields: []string{
			"ccu_peak", "owners", "reviews", "review_score", "price",
			"release_date", "growth_7d", "playtime", "name",
		},
		Defaults: Defaults{Type: "game", Sort: "ccu_peak", Order: model.OrderDesc},
	}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the shared registry built from DefaultCatalog.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = MustNew(DefaultCatalog())
	})
	return defaultReg
}
