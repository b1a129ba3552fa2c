package vaillant

import (
	"fmt"
	"maps"
	"slices"
)

const API_URL_BASE = "https://api.vaillant-group.com/service-connected-control/end-user-app-api/v1"

const IDENTITY_URL_BASE = "https://identity.vaillant-group.com/auth/realms"

const CLIENT_ID = "myvaillant"

const REDIRECT_URI = "enduservaillant.page.link://login"

const SUBSCRIPTION_KEY = "1e0a2f3511fb4c5bbb1c7f9fedd20b1c"

const DEFAULT_BRAND = "vaillant"

const DEFAULT_COUNTRY = "poland"

// Quick veto duration used when neither the caller nor the zone gives one
const DEFAULT_QUICK_VETO_DURATION float64 = 3

// Brands maps the brand key used in the identity realm to the app name
var Brands = map[string]string{
	"vaillant": "myVAILLANT",
	"sdbg":     "MiGo",
	"bulex":    "MiBulex",
}

// Countries maps the country key used in the identity realm to its display name
var Countries = map[string]string{
	"albania":       "Albania",
	"austria":       "Austria",
	"belgium":       "Belgium",
	"bulgaria":      "Bulgaria",
	"croatia":       "Croatia",
	"czechrepublic": "Czech Republic",
	"denmark":       "Denmark",
	"estonia":       "Estonia",
	"finland":       "Finland",
	"france":        "France",
	"georgia":       "Georgia",
	"germany":       "Germany",
	"greece":        "Greece",
	"hungary":       "Hungary",
	"italy":         "Italy",
	"latvia":        "Latvia",
	"lithuania":     "Lithuania",
	"luxembourg":    "Luxembourg",
	"netherlands":   "Netherlands",
	"norway":        "Norway",
	"poland":        "Poland",
	"portugal":      "Portugal",
	"romania":       "Romania",
	"serbia":        "Serbia",
	"slovakia":      "Slovakia",
	"slovenia":      "Slovenia",
	"spain":         "Spain",
	"sweden":        "Sweden",
	"switzerland":   "Switzerland",
	"turkey":        "Turkey",
	"uk":            "United Kingdom",
	"ukraine":       "Ukraine",
}

func BrandKeys() []string {
	return sortedKeys(Brands)
}

func CountryKeys() []string {
	return sortedKeys(Countries)
}

func ValidateBrand(brand string) error {
	if _, ok := Brands[brand]; !ok {
		return fmt.Errorf("unknown brand %q (valid: %v)", brand, BrandKeys())
	}
	return nil
}

func ValidateCountry(country string) error {
	if _, ok := Countries[country]; !ok {
		return fmt.Errorf("unknown country %q (valid: %v)", country, CountryKeys())
	}
	return nil
}

// realmURL returns the Keycloak realm of one brand and country, e.g.
// <https://identity.vaillant-group.com/auth/realms/vaillant-poland-b2c>
func realmURL(identityBase, brand, country string) string {
	return fmt.Sprintf("%s/%s-%s-b2c", identityBase, brand, country)
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
