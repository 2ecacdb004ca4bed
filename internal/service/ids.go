package service

import (
	"context"
	"errors"

	"github.com/iliyamo/auto-insurance/internal/apperr"
	"github.com/iliyamo/auto-insurance/internal/repository"
)

// maxIDAttempts bounds re-allocation when an allocated id is already held by
// a row that was stored with a caller supplied id.
const maxIDAttempts = 3

// createWithID calls insert with supplied when it is positive. Otherwise it
// allocates from seq and, on repository.ErrDuplicate, retries with a fresh
// id. A duplicate on a supplied id is returned as is.
func createWithID(ctx context.Context, ids IDAllocator, seq string, supplied int64, insert func(id int64) error) error {
	if supplied > 0 {
		return insert(supplied)
	}
	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, aerr := ids.Next(ctx, seq)
		if aerr != nil {
			return apperr.Wrap(apperr.KindInternal, "allocate "+seq+" id", aerr)
		}
		if err = insert(id); !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
	}
	return err
}
