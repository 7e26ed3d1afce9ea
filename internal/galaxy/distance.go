package galaxy

// Calculator resolves origin expressions and measures distances for one server.
type Calculator struct {
	Server ServerData
}

// NewCalculator returns a calculator bound to the given universe shape.
func NewCalculator(server ServerData) *Calculator {
	return &Calculator{Server: server}
}

// Distance returns the flight distance between two coordinates using the
// game's formula. Galaxies and systems wrap around when the server is a donut.
func (c *Calculator) Distance(a, b Coordinate) float64 {
	if a.Galaxy != b.Galaxy {
		d := wrapDelta(a.Galaxy, b.Galaxy, c.Server.Galaxies, c.Server.DonutGalaxy)
		return float64(20000 * d)
	}
	if a.System != b.System {
		d := wrapDelta(a.System, b.System, c.Server.Systems, c.Server.DonutSystem)
		return float64(2700 + 95*d)
	}
	if a.Position != b.Position {
		return float64(1000 + 5*abs(a.Position-b.Position))
	}
	return 5
}

// ParseOrigins evaluates an origin expression against the owned celestials.
func (c *Calculator) ParseOrigins(expr string, celestials []Celestial) []Celestial {
	return ParseOrigins(expr, celestials)
}

func wrapDelta(a, b, size int, donut bool) int {
	d := abs(a - b)
	if donut && size > 0 && size-d < d {
		return size - d
	}
	return d
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
