// Package services defines the business logic for authentication, chats,
// streamed turns, votes, and financial-data linking. This file centralizes
// common service-level error values so that they can be consistently returned
// by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Chat and turn errors.
var (
	// ErrChatNotFound indicates that the requested chat does not exist.
	ErrChatNotFound = errors.New("chat not found")

	// ErrChatForbidden indicates the chat exists but belongs to another user
	// and is not publicly visible.
	ErrChatForbidden = errors.New("chat belongs to another user")

	// ErrEmptyPrompt is returned when a turn request contains an empty
	// message.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrNoUserMessage is returned when a turn request's history carries no
	// user message to answer.
	ErrNoUserMessage = errors.New("no user message in request")

	// ErrTooLong is returned when a turn request exceeds the maximum
	// configured length limit.
	ErrTooLong = errors.New("prompt too long")

	// ErrUnknownModel is returned when a turn names a model variant outside
	// the public set.
	ErrUnknownModel = errors.New("unknown model variant")

	// ErrInvalidVisibility is returned for visibility values other than
	// "private" and "public".
	ErrInvalidVisibility = errors.New("visibility must be private or public")
)

// Vote errors.
var (
	// ErrMessageNotFound indicates that the requested message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrForbiddenVote is returned when a user attempts to vote on a message
	// they are not permitted to rate.
	ErrForbiddenVote = errors.New("cannot vote on this message")
)

// Auth errors.
var (
	// ErrEmailTaken indicates an account already exists for the email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses do not reveal which part failed.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrWeakPassword is returned when a registration password is too short.
	ErrWeakPassword = errors.New("password must be at least 6 characters")

	// ErrInvalidEmail is returned for malformed registration emails.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidToken is returned for expired or malformed session tokens.
	ErrInvalidToken = errors.New("invalid session token")
)

// Financial-link errors.
var (
	// ErrLinkNotFound indicates the user has not linked a financial account.
	ErrLinkNotFound = errors.New("no linked financial account")

	// ErrUnknownItem indicates a webhook referenced an item no user has
	// linked.
	ErrUnknownItem = errors.New("unknown aggregator item")
)
