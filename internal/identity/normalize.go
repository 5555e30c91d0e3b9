package identity

import "strings"

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

func NormalizeLocation(loc string) string {
	loc = CleanText(loc)
	if loc == "" {
		return ""
	}

	loc = strings.TrimPrefix(loc, "Location:")
	loc = strings.TrimPrefix(loc, "LOCATIONS:")
	loc = strings.TrimSpace(loc)

	parts := strings.Split(loc, ",")
	seen := map[string]bool{}
	var out []string
	for _, p := range parts {
		p = CleanText(p)
		if p == "" {
			continue
		}
		k := strings.ToLower(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

// SplitCityState best-effort splits "City, State" style location text for
// sinks that store the two separately.
func SplitCityState(loc string) (city, state string) {
	loc = CleanText(loc)
	if loc == "" {
		return "", ""
	}
	parts := strings.SplitN(loc, ",", 3)
	city = CleanText(parts[0])
	if len(parts) > 1 {
		state = CleanText(parts[1])
	}
	return city, state
}
