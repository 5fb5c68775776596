package handler

import (
	"net/http"

	"github.com/mcoot/playermanager/internal/api/apierr"
)

// WriteError writes err as a JSON error body with the mapped status
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError reports a malformed body or parameter
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}
