package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
)

// ErrDuplicate marks a unique-constraint violation. It matches
// domain.ErrConstraintViolation under errors.Is.
var ErrDuplicate = fmt.Errorf("%w: duplicate key", domain.ErrConstraintViolation)

var (
	uniqueViolationMarkers = []string{
		"duplicate key",
		"UNIQUE constraint",
		"Duplicate entry",
	}
	constraintViolationMarkers = []string{
		"CHECK constraint",
		"violates check constraint",
		"FOREIGN KEY constraint",
		"violates foreign key constraint",
		"a foreign key constraint fails",
	}
)

// translateError converts driver errors into the domain taxonomy at the
// store boundary. Unknown errors pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	if errors.As(err, &de) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}

	msg := err.Error()
	for _, m := range uniqueViolationMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
	}
	for _, m := range constraintViolationMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %v", domain.ErrConstraintViolation, err)
		}
	}
	return err
}
