// Package usecases holds the application rules. Handlers call into it;
// it reaches storage only through repository interfaces.
package usecases

import (
	"errors"
	"math"

	"energy-server/apperrors"
	"energy-server/repositories"
)

// storeErr wraps a repository failure as a persistence error carrying msg.
func storeErr(msg string, err error) error {
	return apperrors.Persistence(msg, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func nonBlank(s *string) bool {
	return s != nil && *s != ""
}
