package galaxy

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// ParseOrigins selects the celestials matched by expr.
//
// The expression is a comma or whitespace separated list of tokens:
//
//	all            every owned celestial
//	planets        every planet
//	moons          every moon
//	g:s:p          planet and moon at that coordinate
//	g:s:p:planet   only the planet at that coordinate
//	g:s:p:moon     only the moon at that coordinate
//
// Unknown tokens are skipped. Each celestial appears at most once, in the
// order it is first matched.
func ParseOrigins(expr string, celestials []Celestial) []Celestial {
	tokens := strings.FieldsFunc(strings.ToLower(expr), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == ';'
	})

	seen := make(map[int]bool)
	var out []Celestial
	add := func(match func(Celestial) bool) {
		for i, c := range celestials {
			if !seen[i] && match(c) {
				seen[i] = true
				out = append(out, c)
			}
		}
	}

	for _, tok := range tokens {
		switch tok {
		case "all":
			add(func(Celestial) bool { return true })
		case "planets":
			add(func(c Celestial) bool { return c.Type == CelestialPlanet })
		case "moons":
			add(func(c Celestial) bool { return c.Type == CelestialMoon })
		default:
			coord, kind, ok := parseOriginToken(tok)
			if !ok {
				log.Warn().Str("token", tok).Msg("Ignoring unknown origin token")
				continue
			}
			add(func(c Celestial) bool {
				return c.Coordinate == coord && (kind == "" || c.Type == kind)
			})
		}
	}

	return out
}

func parseOriginToken(tok string) (Coordinate, CelestialType, bool) {
	tok = strings.Trim(tok, "[]")
	var kind CelestialType
	if i := strings.LastIndex(tok, ":"); i >= 0 {
		switch CelestialType(tok[i+1:]) {
		case CelestialPlanet, CelestialMoon:
			kind = CelestialType(tok[i+1:])
			tok = tok[:i]
		}
	}
	c, err := ParseCoordinate(tok)
	if err != nil {
		return Coordinate{}, "", false
	}
	return c, kind, true
}
