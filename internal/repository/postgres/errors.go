package postgres

import (
	"errors"

	"github.com/lib/pq"

	"github.com/grapeapp/grape-backend/internal/domain"
	svcErr "github.com/grapeapp/grape-backend/internal/errors"
)

// Constraint names declared by the migrations.
const (
	constraintLikesPair       = "likes_liker_id_liked_id_key"
	constraintLikesNoSelf     = "likes_no_self_like"
	constraintMatchActivePair = "matches_active_pair_key"
	constraintMatchOrder      = "matches_ordered_pair"
	constraintUsersEmail      = "users_email_key"
	constraintUsersPhone      = "users_phone_number_key"
	constraintUsersPictures   = "users_pictures_max"
	constraintUsersPrompts    = "users_prompts_max"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
	codeInvalidDatetime     = "22007"
	codeDatetimeOverflow    = "22008"
)

// mapError translates storage constraint violations into service errors.
// Everything else is returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case codeUniqueViolation:
		switch pqErr.Constraint {
		case constraintLikesPair:
			return domain.ErrDuplicateLike
		case constraintMatchActivePair:
			return domain.ErrAlreadyMatched
		case constraintUsersEmail:
			return domain.ErrEmailTaken
		case constraintUsersPhone:
			return domain.ErrPhoneTaken
		}
		return svcErr.Conflict("resource already exists")
	case codeForeignKeyViolation:
		return domain.ErrUserNotFound
	case codeCheckViolation:
		switch pqErr.Constraint {
		case constraintLikesNoSelf:
			return domain.ErrCannotLikeSelf
		case constraintMatchOrder:
			return domain.ErrCannotMatchSelf
		case constraintUsersPictures:
			return domain.ErrTooManyPictures
		case constraintUsersPrompts:
			return domain.ErrTooManyPrompts
		}
		return svcErr.Validation("request violates a data constraint")
	case codeInvalidText, codeInvalidDatetime, codeDatetimeOverflow:
		return svcErr.Validation("malformed value")
	}
	return err
}
