package core

import "context"

// TransferAll reassigns every note last written by from to to.
// It is the pre-step to deleting a user.
//
// Locked notes are never rewritten underneath their holder: all affected notes
// are reserved up front, and if any of them is locked the transfer fails with a
// LockConflictError before a single record changes. The rewrite itself is not
// atomic; a failure midway returns a TransferError carrying the partial count.
func (s *Service) TransferAll(ctx context.Context, from, to string) (TransferResult, error) {
	result := TransferResult{From: from, To: to}

	if err := RequireField("name", from); err != nil {
		return result, err
	}
	if err := RequireField("newOwner", to); err != nil {
		return result, err
	}
	if from == to {
		return result, NewValidationError("newOwner", "New owner must be a different user")
	}
	if err := s.requireUser(ctx, from); err != nil {
		return result, err
	}
	if err := s.requireUser(ctx, to); err != nil {
		return result, err
	}

	notes, err := s.ListNotes(ctx)
	if err != nil {
		return result, err
	}
	ids := ownedBy(notes, from)
	if len(ids) == 0 {
		s.logger.Info("nothing to transfer", "from", from, "to", to)
		return result, nil
	}

	holder := transferHolderPrefix + from
	if err := s.locks.ReserveAll(ids, holder); err != nil {
		s.logger.Warn("transfer refused", "from", from, "to", to, "error", err)
		return result, err
	}
	defer s.locks.ReleaseAll(ids, holder)

	for _, id := range ids {
		n, err := s.repo.Get(ctx, id)
		if Is(err, ErrNotFound) || (err == nil && n.LastEditedBy != from) {
			// Deleted or rewritten by someone else between the scan and the reservation.
			continue
		}
		if err == nil {
			err = s.repo.Update(ctx, id, n.Title, n.Content, to)
		}
		if err != nil {
			s.logReadError(id, err)
			s.logger.Error("transfer aborted", "from", from, "to", to, "transferred", result.Transferred, "error", err)
			return result, &TransferError{Transferred: result.Transferred, Err: err}
		}
		result.Transferred++
		result.NoteIDs = append(result.NoteIDs, id)
	}

	s.logger.Info("notes transferred", "from", from, "to", to, "count", result.Transferred)
	return result, nil
}
