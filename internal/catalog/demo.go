package catalog

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// SeedDemo fills an in-memory store with the same starter catalog the
// Postgres seed migration installs.
func SeedDemo(store *repository.MemoryStore) {
	for _, p := range []domain.Product{
		{Name: "Organic Ponni Rice (5 kg)", Price: decimal.RequireFromString("450.00"), Image: "images/ponni-rice.jpg"},
		{Name: "Country Tomatoes (1 kg)", Price: decimal.RequireFromString("40.00"), Image: "images/tomatoes.jpg"},
		{Name: "Cold-pressed Groundnut Oil (1 L)", Price: decimal.RequireFromString("320.00"), Image: "images/groundnut-oil.jpg"},
		{Name: "Drip Irrigation Planning Guide (PDF)", Price: decimal.RequireFromString("99.00"), Digital: true, Image: "images/drip-guide.jpg"},
	} {
		store.AddProduct(p)
	}
	for _, a := range []domain.Article{
		{Title: "Preparing soil for the monsoon", Category: "soil", Summary: "Simple steps before the first rains.",
			Body: "Test pH, add compost and plan drainage channels before sowing."},
		{Title: "Drip irrigation basics", Category: "irrigation", Summary: "Save water with drip lines.",
			Body: "Lay lines along the root zone and flush filters weekly."},
		{Title: "Making vermicompost at home", Category: "soil", Summary: "Turn farm waste into fertiliser.",
			Body: "Keep beds moist and shaded; harvest after six to eight weeks."},
	} {
		store.AddArticle(a)
	}
}
