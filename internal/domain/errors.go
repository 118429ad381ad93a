package domain

import "errors"

// Domain errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrCharacterNotFound   = errors.New("character not found")
	ErrHintNotFound        = errors.New("hint not found")
	ErrAnswerKeyNotFound   = errors.New("answer key not found")
	ErrNoteNotFound        = errors.New("note not found")
	ErrVoteNotFound        = errors.New("vote not found")
	ErrRoundStateNotFound  = errors.New("round state not found")
	ErrInvalidAmount       = errors.New("please enter a valid amount")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidRecipient    = errors.New("invalid transfer recipient")
	ErrAlreadySolved       = errors.New("answer has already been solved")
	ErrIncorrectAnswer     = errors.New("incorrect answer")
	ErrWrongWordCount      = errors.New("wrong number of words")
	ErrInvalidSlot         = errors.New("invalid answer slot")
	ErrInvalidCategory     = errors.New("invalid answer category")
	ErrAlreadyVoted        = errors.New("already voted in this category")
	ErrInvalidVoteCategory = errors.New("invalid vote category")
	ErrInvalidVoteTarget   = errors.New("invalid vote target")
	ErrHintAlreadyBought   = errors.New("hint already bought")
	ErrNoHintsAvailable    = errors.New("no available hints to purchase")
	ErrInvalidRound        = errors.New("invalid round")
	ErrEmptyNote           = errors.New("note cannot be empty")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrForbidden           = errors.New("admin permission required")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInternalError       = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrCharacterNotFound) ||
		errors.Is(err, ErrHintNotFound) ||
		errors.Is(err, ErrAnswerKeyNotFound) ||
		errors.Is(err, ErrNoteNotFound) ||
		errors.Is(err, ErrVoteNotFound) ||
		errors.Is(err, ErrRoundStateNotFound)
}

// IsConflictError checks if an error reports a state that forbids the write
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAlreadySolved) ||
		errors.Is(err, ErrAlreadyVoted) ||
		errors.Is(err, ErrHintAlreadyBought)
}

// IsValidationError checks if an error is a rejected user input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInvalidRecipient) ||
		errors.Is(err, ErrIncorrectAnswer) ||
		errors.Is(err, ErrWrongWordCount) ||
		errors.Is(err, ErrInvalidSlot) ||
		errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrInvalidVoteCategory) ||
		errors.Is(err, ErrInvalidVoteTarget) ||
		errors.Is(err, ErrNoHintsAvailable) ||
		errors.Is(err, ErrInvalidRound) ||
		errors.Is(err, ErrEmptyNote) ||
		errors.Is(err, ErrInvalidRequest)
}
