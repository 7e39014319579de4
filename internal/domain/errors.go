package domain

import "errors"

var (
	// ErrProductNotFound is returned when a barcode cannot be resolved in OpenFoodFacts
	ErrProductNotFound = errors.New("product not found in OpenFoodFacts")

	// ErrNotInStore is returned when a barcode has no live document in the store
	ErrNotInStore = errors.New("product not in store")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrStoreUnavailable is returned when the product store cannot be reached
	ErrStoreUnavailable = errors.New("product store unavailable")
)
