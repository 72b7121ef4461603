package middleware

import (
	"net/http"

	goBreach "github.com/MrEthical07/goBreach"
)

// RejectBreached returns middleware that runs an automatic check and rejects
// breached passwords with 422. Requests pass through unchecked once automatic
// checks are disabled.
func RejectBreached(engine *goBreach.Engine, extract SecretExtractor) func(http.Handler) http.Handler {
	return Guard(engine, ModeAutomatic, extract)
}

// RequireChecked returns middleware that runs a manual check and answers 503
// when no verdict could be obtained.
func RequireChecked(engine *goBreach.Engine, extract SecretExtractor) func(http.Handler) http.Handler {
	return Guard(engine, ModeManual, extract)
}
