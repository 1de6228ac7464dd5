package service

import (
	"errors"
	"fmt"

	"beefsteak/internal/repository"
)

var (
	// ErrAuthenticationRequired means the identity cookies are missing or do not verify.
	ErrAuthenticationRequired = errors.New("please log in to continue")
	// ErrAuthorizationDenied means the caller is authenticated but does not own the resource.
	ErrAuthorizationDenied = errors.New("you are not allowed to change this list")
	// ErrNotFound means a referenced list, task, user or group has no row.
	ErrNotFound = errors.New("not found")
	// ErrValidation means the input was rejected before any storage mutation.
	ErrValidation = errors.New("invalid input")
	// ErrInvalidGroup means a join request named a group that does not exist.
	ErrInvalidGroup = fmt.Errorf("%w: invalid group id, please try again", ErrValidation)
	// ErrNotInGroup means the user has not joined any group yet.
	ErrNotInGroup = errors.New("user is not in a group")
	// ErrInvalidTransition means the list is already in a different terminal state.
	ErrInvalidTransition = errors.New("task list is already finished")
	// ErrInvalidCredentials is returned by login for unknown users and wrong passwords.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrAuthenticationRequired)
	// ErrStorage wraps any failure of the underlying database.
	ErrStorage = errors.New("storage failure")
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storageErr translates a repository error for op into the service taxonomy.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if errors.Is(err, repository.ErrStatusConflict) {
		return fmt.Errorf("%s: %w", op, ErrInvalidTransition)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
