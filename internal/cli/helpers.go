package cli

import (
	"fmt"
	"strings"

	"github.com/plancoach/plancoach/internal/daemon"
	"github.com/plancoach/plancoach/internal/domain"
)

// resolveChallengeID accepts a full challenge id or an unambiguous prefix.
func resolveChallengeID(d *daemon.Daemon, ref string) (string, error) {
	var match string
	for _, c := range d.Engine.ActiveChallenges() {
		if c.ID == ref {
			return c.ID, nil
		}
		if strings.HasPrefix(c.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("ambiguous challenge id %q", ref)
			}
			match = c.ID
		}
	}
	if match == "" {
		return "", domain.ErrChallengeNotFound
	}
	return match, nil
}
