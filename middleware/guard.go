package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	goBreach "github.com/MrEthical07/goBreach"
)

// Mode selects which Engine entry point a guard uses.
type Mode int

const (
	// ModeAutomatic uses Engine.CheckAutomatic and fails open.
	ModeAutomatic Mode = iota
	// ModeManual uses Engine.Check and fails closed.
	ModeManual
)

const maxBodyBytes = 64 << 10

// ErrNoSecret is returned by extractors when the request carries no password.
var ErrNoSecret = errors.New("request carries no password")

// SecretExtractor pulls the password to check out of a request. It must leave
// the request body readable for the next handler.
type SecretExtractor func(r *http.Request) ([]byte, error)

type verdictContextKey struct{}

// VerdictFromContext returns the verdict a guard stored for this request. ok
// is false when the check was skipped.
func VerdictFromContext(ctx context.Context) (goBreach.Verdict, bool) {
	v, ok := ctx.Value(verdictContextKey{}).(goBreach.Verdict)
	return v, ok
}

// Guard returns middleware that checks the extracted password in mode before
// calling next. Breached passwords get 422 and next is not called.
func Guard(engine *goBreach.Engine, mode Mode, extract SecretExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil || extract == nil {
				http.Error(w, "breach check unavailable", http.StatusServiceUnavailable)
				return
			}

			secret, err := extract(r)
			if err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}

			ctx := withClientIP(r)
			var verdict goBreach.Verdict
			if mode == ModeManual {
				verdict, err = engine.Check(ctx, secret)
			} else {
				verdict, err = engine.CheckAutomatic(ctx, secret)
			}
			clear(secret)

			switch {
			case err == nil && verdict.Breached:
				http.Error(w, "password appears in a known breach", http.StatusUnprocessableEntity)
				return
			case err == nil:
				ctx = context.WithValue(ctx, verdictContextKey{}, verdict)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			case mode == ModeAutomatic && skippable(err):
				next.ServeHTTP(w, r)
				return
			case errors.Is(err, goBreach.ErrLookupRateLimited):
				http.Error(w, "too many requests", http.StatusTooManyRequests)
			case errors.Is(err, context.Canceled):
				return
			default:
				http.Error(w, "breach check unavailable", http.StatusServiceUnavailable)
			}
		})
	}
}

func skippable(err error) bool {
	return errors.Is(err, goBreach.ErrAutomaticChecksDisabled) ||
		errors.Is(err, goBreach.ErrLookupUnavailable)
}

// withClientIP keeps an IP set by an earlier handler, else uses RemoteAddr.
func withClientIP(r *http.Request) context.Context {
	if _, ok := goBreach.ClientIPFromContext(r.Context()); ok {
		return r.Context()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return goBreach.WithClientIP(r.Context(), host)
}

// FormField reads the password from a URL-encoded or multipart form field.
func FormField(name string) SecretExtractor {
	return func(r *http.Request) ([]byte, error) {
		r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
		value := r.PostFormValue(name)
		if value == "" {
			return nil, ErrNoSecret
		}
		return []byte(value), nil
	}
}

// JSONField reads the password from a top-level string field of a JSON body.
// The body is restored so the next handler can decode it again.
func JSONField(name string) SecretExtractor {
	return func(r *http.Request) ([]byte, error) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if err != nil {
			return nil, err
		}
		if len(body) > maxBodyBytes {
			return nil, errors.New("request body too large")
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, err
		}
		raw, ok := fields[name]
		if !ok {
			return nil, ErrNoSecret
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, err
		}
		if value == "" {
			return nil, ErrNoSecret
		}
		return []byte(value), nil
	}
}
