package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
)

// NewAPIProxy forwards /api/... to target with the /api prefix removed, so
// /api/bookings/my reaches <target>/bookings/my.
func NewAPIProxy(target string, logger *slog.Logger) (http.Handler, error) {
	upstream, err := url.Parse(strings.TrimRight(target, "/"))
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("invalid upstream URL %q", target)
	}
	responder := newResponder(logger)

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = strings.TrimPrefix(pr.In.URL.Path, "/api")
			pr.Out.URL.RawPath = ""
			pr.SetURL(upstream)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			status := http.StatusBadGateway
			if errors.Is(err, context.DeadlineExceeded) {
				status = http.StatusGatewayTimeout
			}
			responder.writeError(r.Context(), w, status, err)
		},
	}
	return proxy, nil
}
