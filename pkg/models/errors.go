package models

import "errors"

// ErrProductNotFound is the one hard error the recommendation surface
// exposes: a caller referenced a product id the catalog does not have.
// Empty signal situations are never errors; they degrade to a
// lower-specificity recommendation instead.
var ErrProductNotFound = errors.New("product not found")
