package handlers

import (
	"net"
	"net/http"

	pkgerrors "github.com/k-code-yt/go-order-placement/pkg/errors"
	"github.com/sirupsen/logrus"
)

const ClientIDHeader = "X-Client-Id"

type ClientLimiter interface {
	Allow(clientID string) bool
}

// clientID prefers the explicit client header and falls back to the remote host.
func clientID(r *http.Request) string {
	if id := r.Header.Get(ClientIDHeader); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func rateLimit(l ClientLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := clientID(r)
			if !l.Allow(id) {
				logrus.WithField("client_id", id).Warn("HTTP:RATE_LIMITED")
				writeError(w, r, pkgerrors.NewRateLimitedError(id))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
