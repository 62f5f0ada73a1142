package domain

import svcErr "github.com/grapeapp/grape-backend/internal/errors"

var (
	ErrUserNotFound     = svcErr.NotFound("user not found")
	ErrUsersNotFound    = svcErr.NotFound("One or both users not found")
	ErrLikeNotFound     = svcErr.NotFound("like not found")
	ErrMatchNotFound    = svcErr.NotFound("match not found")
	ErrDuplicateLike    = svcErr.Conflict("You have already liked this user")
	ErrAlreadyMatched   = svcErr.Conflict("Match already exists between these users")
	ErrEmailTaken       = svcErr.Conflict("email already registered")
	ErrPhoneTaken       = svcErr.Conflict("phone number already registered")
	ErrCannotLikeSelf   = svcErr.Validation("you cannot like yourself")
	ErrCannotMatchSelf  = svcErr.Validation("you cannot match with yourself")
	ErrCannotChatSelf   = svcErr.Validation("you cannot message yourself")
	ErrTooManyPictures  = svcErr.Validation("Maximum 6 pictures allowed")
	ErrTooManyPrompts   = svcErr.Validation("Maximum 3 prompts allowed")
	ErrNoFieldsToUpdate = svcErr.Validation("No valid fields to update")
	ErrInvalidLocation  = svcErr.Validation("latitude must be within [-90, 90] and longitude within [-180, 180]")
	ErrEmptyMessage     = svcErr.Validation("message content is required")
	ErrMessageTooLong   = svcErr.Validation("message content exceeds 2000 characters")
	ErrInvalidCursor    = svcErr.Validation("invalid pagination cursor")
	ErrNotMatched       = svcErr.Forbidden("users are not matched")
	ErrForbidden        = svcErr.Forbidden("you are not allowed to access this resource")

	ErrVerificationFailed = svcErr.Validation("invalid or expired verification code")
	ErrTooManyAttempts    = svcErr.Validation("too many attempts, request a new code")
	ErrInvalidContact     = svcErr.Validation("a valid phone number or email is required")
)
