// Package querybuilder converts a project description into a small ordered
// set of verticalized search queries. It is pure and deterministic: no I/O,
// no randomness, no clock.
package querybuilder

import (
	"fmt"
	"strings"

	"github.com/compintel/discovery/internal/models"
)

const maxQueries = 5

// vertical is a detected business category used to verticalize queries.
type vertical struct {
	name   string
	phrase string
}

// verticalLadder is a prioritized keyword ladder. First match wins, which is
// why neobank/challenger-bank is checked ahead of the generic fintech bucket
// (a neobank mentioning "payments" in its description would otherwise be
// mis-classified as generic fintech).
var verticalLadder = []struct {
	vertical vertical
	keywords []string
}{
	{vertical{"neobank", "neobank challenger bank mobile banking"}, []string{"neobank", "challenger bank", "digital bank", "digital-only bank"}},
	{vertical{"mobile_money", "mobile money wallet"}, []string{"mobile money", "mobile wallet", "ussd payments"}},
	{vertical{"lending", "digital lending microloans"}, []string{"lending", "microloan", "microcredit", "buy now pay later", "bnpl"}},
	{vertical{"remittance", "remittance cross-border payments"}, []string{"remittance", "cross-border payment", "money transfer"}},
	{vertical{"payment_infra", "payment infrastructure gateway"}, []string{"payment gateway", "payment infrastructure", "payment processor", "pos terminal"}},
	{vertical{"savings", "savings investment app"}, []string{"savings app", "investment app", "robo-advisor"}},
	{vertical{"fintech", "fintech payments"}, []string{"fintech", "financial technology", "payments startup"}},
	{vertical{"construction_materials", "construction materials supply"}, []string{"construction material", "building material", "cement supply", "hardware supply"}},
	{vertical{"logistics", "logistics last-mile delivery"}, []string{"logistics", "last-mile delivery", "freight", "courier", "supply chain"}},
	{vertical{"agritech", "agritech farming technology"}, []string{"agritech", "agtech", "farming technology", "agricultural marketplace"}},
	{vertical{"healthtech", "healthtech telemedicine"}, []string{"healthtech", "telemedicine", "digital health", "health tech"}},
	{vertical{"marketplace", "e-commerce marketplace"}, []string{"marketplace", "e-commerce", "ecommerce", "online retail"}},
	{vertical{"edtech", "edtech online learning"}, []string{"edtech", "online learning", "e-learning"}},
}

var businessTypePhrases = []string{"b2b", "b2c", "wholesale"}

var westAfricaCountries = []string{
	"nigeria", "ghana", "senegal", "ivory coast", "côte d'ivoire", "cote d'ivoire",
	"mali", "burkina faso", "benin", "togo", "sierra leone", "liberia", "guinea",
	"niger", "gambia", "cape verde",
}

var eastAfricaCountries = []string{
	"kenya", "tanzania", "uganda", "rwanda", "ethiopia", "somalia", "burundi", "south sudan",
}

var africaGeneric = []string{"africa", "sub-saharan"}

// regionNames maps ISO-3166 alpha-2 codes to a human-readable name, used both
// by geography detection below and exposed as a standalone helper.
var regionNames = map[string]string{
	"NG": "Nigeria", "GH": "Ghana", "SN": "Senegal", "CI": "Ivory Coast",
	"ML": "Mali", "BF": "Burkina Faso", "BJ": "Benin", "TG": "Togo",
	"SL": "Sierra Leone", "LR": "Liberia", "GN": "Guinea", "NE": "Niger",
	"GM": "Gambia", "CV": "Cape Verde",
	"KE": "Kenya", "TZ": "Tanzania", "UG": "Uganda", "RW": "Rwanda",
	"ET": "Ethiopia", "SO": "Somalia", "BI": "Burundi", "SS": "South Sudan",
	"ZA": "South Africa", "EG": "Egypt", "MA": "Morocco", "TN": "Tunisia",
	"US": "United States", "GB": "United Kingdom", "FR": "France", "DE": "Germany",
	"IN": "India", "BR": "Brazil", "CN": "China", "AE": "United Arab Emirates",
}

var westAfricaCodes = map[string]bool{
	"NG": true, "GH": true, "SN": true, "CI": true, "ML": true, "BF": true,
	"BJ": true, "TG": true, "SL": true, "LR": true, "GN": true, "NE": true,
	"GM": true, "CV": true,
}

var eastAfricaCodes = map[string]bool{
	"KE": true, "TZ": true, "UG": true, "RW": true, "ET": true, "SO": true,
	"BI": true, "SS": true,
}

// africanCodes is the broader continent set used for the "any African codes"
// fallback in step 2.
var africanCodes = map[string]bool{
	"NG": true, "GH": true, "SN": true, "CI": true, "ML": true, "BF": true,
	"BJ": true, "TG": true, "SL": true, "LR": true, "GN": true, "NE": true,
	"GM": true, "CV": true, "KE": true, "TZ": true, "UG": true, "RW": true,
	"ET": true, "SO": true, "BI": true, "SS": true, "ZA": true, "EG": true,
	"MA": true, "TN": true,
}

// RegionName returns the human-readable name for an ISO-3166 alpha-2 code,
// or the code itself (uppercased) when unknown.
func RegionName(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if name, ok := regionNames[code]; ok {
		return name
	}
	return code
}

func detectVertical(description string) (vertical, bool) {
	lower := strings.ToLower(description)
	for _, entry := range verticalLadder {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.vertical, true
			}
		}
	}
	return vertical{}, false
}

func detectGeography(description string, regions []string) string {
	lower := strings.ToLower(description)
	for _, c := range westAfricaCountries {
		if strings.Contains(lower, c) {
			return "West Africa"
		}
	}
	for _, c := range eastAfricaCountries {
		if strings.Contains(lower, c) {
			return "East Africa"
		}
	}
	for _, c := range africaGeneric {
		if strings.Contains(lower, c) {
			return "Africa"
		}
	}

	if len(regions) == 0 {
		return ""
	}
	west, east, african := 0, 0, 0
	for _, r := range regions {
		code := strings.ToUpper(strings.TrimSpace(r))
		if westAfricaCodes[code] {
			west++
		}
		if eastAfricaCodes[code] {
			east++
		}
		if africanCodes[code] {
			african++
		}
	}
	half := (len(regions) + 1) / 2
	switch {
	case west >= half && west > 0:
		return "West Africa"
	case east >= half && east > 0:
		return "East Africa"
	case african > 0:
		return "Africa"
	default:
		return ""
	}
}

func detectBusinessType(description string) string {
	lower := strings.ToLower(description)
	for _, t := range businessTypePhrases {
		if strings.Contains(lower, t) {
			return strings.ToUpper(t)
		}
	}
	return ""
}

// Build produces 1-5 specific search queries from a project. It always
// returns at least one non-empty query; it never errors.
func Build(project *models.Project) []string {
	if project == nil {
		return []string{"startup company"}
	}

	v, hasVertical := detectVertical(project.Description)
	geography := detectGeography(project.Description, project.Regions)
	businessType := detectBusinessType(project.Description)

	base := baseQuery(project, v, hasVertical, businessType, geography)

	keywords := project.Keywords
	if len(keywords) == 0 {
		keywords = []string{""}
	}
	regions := project.Regions
	if len(regions) == 0 {
		regions = []string{""}
	}
	industry := ""
	if len(project.Industries) > 0 {
		industry = project.Industries[0]
	}

	seen := make(map[string]bool)
	var queries []string
	for _, kw := range keywords {
		for _, region := range regions {
			if len(queries) >= maxQueries {
				break
			}
			q := composeQuery(base, kw, region)
			if !seen[q] {
				seen[q] = true
				queries = append(queries, q)
			}
			if len(queries) >= maxQueries {
				break
			}
			if industry != "" {
				iq := composeQuery(base, kw, region) + " " + industry
				if !seen[iq] {
					seen[iq] = true
					queries = append(queries, iq)
				}
			}
		}
	}

	if len(queries) == 0 {
		queries = []string{base}
	}
	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}
	return queries
}

func baseQuery(project *models.Project, v vertical, hasVertical bool, businessType, geography string) string {
	if !hasVertical {
		name := strings.TrimSpace(project.Name)
		if name == "" {
			return "startup company"
		}
		return fmt.Sprintf("%s competitors", name)
	}

	parts := []string{v.phrase}
	if businessType != "" {
		parts = append(parts, businessType)
	}
	if geography != "" {
		parts = append(parts, geography)
	}
	parts = append(parts, "startup")
	return strings.Join(parts, " ")
}

func composeQuery(base, keyword, region string) string {
	parts := []string{base}
	if keyword != "" {
		parts = append(parts, keyword)
	}
	if region != "" {
		parts = append(parts, RegionName(region))
	}
	return strings.Join(parts, " ")
}
