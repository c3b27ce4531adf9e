// Package domain defines subscriber lifecycle operations and the transition
// rules between statuses.
package domain

import (
	subscriberdomain "github.com/fiberlink/backoffice/internal/subscriber/domain"
)

// IsTransitionAllowed reports whether a subscriber may move from current to
// target. Renewal re-enters ACTIVE from any billed state, including ACTIVE
// itself.
func IsTransitionAllowed(current, target subscriberdomain.Status) bool {
	switch current {
	case subscriberdomain.StatusPendingInstallation:
		return target == subscriberdomain.StatusInstallationScheduled ||
			target == subscriberdomain.StatusActive
	case subscriberdomain.StatusInstallationScheduled:
		return target == subscriberdomain.StatusActive ||
			target == subscriberdomain.StatusPendingInstallation
	case subscriberdomain.StatusActive:
		return target == subscriberdomain.StatusActive ||
			target == subscriberdomain.StatusExpired ||
			target == subscriberdomain.StatusSuspended
	case subscriberdomain.StatusExpired:
		return target == subscriberdomain.StatusActive
	case subscriberdomain.StatusSuspended:
		return target == subscriberdomain.StatusActive
	}
	return false
}
