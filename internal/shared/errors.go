package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates invalid or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientStock occurs when an operation would consume more stock than available.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrNegativeStock occurs when a reversal would drive a balance below zero.
	ErrNegativeStock = errors.New("negative stock not allowed")
	// ErrReferencedEntity blocks deletion of a record other rows still point at.
	ErrReferencedEntity = errors.New("entity is referenced")
	// ErrNoRecipe occurs when production is attempted for a product without a recipe.
	ErrNoRecipe = errors.New("product has no recipe")
	// ErrUnauthorized indicates a failed authorization check.
	ErrUnauthorized = errors.New("unauthorized")
)
