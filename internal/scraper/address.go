package scraper

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// districtCityDistance is the edit-distance budget for treating the part
// before the dash as a restatement of the city. One edit tolerates the
// site's typos and diacritic drops without conflating distinct names.
const districtCityDistance = 1

// SplitDistrict resolves the ambiguous remainder of a result entry's
// address line. The site sometimes prefixes the district with a redundant,
// loosely spelled copy of the city ("Limasol - Agios Athanasios"); when the
// part before " - " is within one edit of city, only the part after the
// dash is the district. Anything else passes through unchanged.
func SplitDistrict(city, rawDistrict string) string {
	parts := strings.SplitN(rawDistrict, " - ", 2)
	if len(parts) != 2 {
		return rawDistrict
	}

	prefix := strings.TrimSpace(parts[0])
	if levenshtein.ComputeDistance(prefix, city) > districtCityDistance {
		return rawDistrict
	}
	return strings.TrimSpace(parts[1])
}
