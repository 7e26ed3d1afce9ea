package galaxy

import "fmt"

// Resources is a metal/crystal/deuterium triple.
type Resources struct {
	Metal     int64 `json:"metal"`
	Crystal   int64 `json:"crystal"`
	Deuterium int64 `json:"deuterium"`
}

// IsEnoughFor reports whether every component covers the matching component of cost.
func (r Resources) IsEnoughFor(cost Resources) bool {
	return r.Metal >= cost.Metal &&
		r.Crystal >= cost.Crystal &&
		r.Deuterium >= cost.Deuterium
}

func (r Resources) String() string {
	return fmt.Sprintf("M:%d C:%d D:%d", r.Metal, r.Crystal, r.Deuterium)
}
