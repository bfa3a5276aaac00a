package permissions

import "github.com/dkovalov/taskhub/internal/models"

// Satisfies reports whether the held access level grants at least the
// required one. The comparison is a pure rank check over the total order
// VIEWER < MEMBER < MANAGER.
func Satisfies(held, required models.AccessLevel) bool {
	return held.Rank() >= required.Rank()
}
