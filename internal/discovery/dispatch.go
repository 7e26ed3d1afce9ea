package discovery

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/xonecas/zoea-discovery/internal/galaxy"
)

// Sender sends discovery fleets.
type Sender interface {
	SendDiscovery(ctx context.Context, origin galaxy.Celestial, dest galaxy.Coordinate) (bool, error)
}

// Dispatch sends one discovery fleet and reports whether it left.
// Transport errors count as a failed send; nothing is retried here.
func Dispatch(ctx context.Context, sender Sender, origin galaxy.Celestial, dest galaxy.Coordinate, logger zerolog.Logger) bool {
	ok, err := sender.SendDiscovery(ctx, origin, dest)
	if err != nil {
		logger.Warn().Err(err).
			Stringer("origin", origin.Coordinate).
			Stringer("destination", dest).
			Msg("Discovery send errored")
		return false
	}
	return ok
}
