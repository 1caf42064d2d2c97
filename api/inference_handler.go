package api

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// inferenceProxy returns a streaming pass-through proxy to the external
// inference service. /inference/chat maps to the service's /api/chat and
// /inference/models to /api/tags; responses are flushed as they arrive so
// streamed chat output reaches the client token by token.
func (a *API) inferenceProxy(baseURL string) http.Handler {
	target, err := url.Parse(baseURL)
	if err != nil {
		a.logger.Error("invalid inference URL", slog.String("url", baseURL), slog.String("error", err.Error()))
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "inference service misconfigured", http.StatusBadGateway)
		})
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			switch pr.In.URL.Path {
			case "/inference/chat":
				pr.Out.URL.Path = "/api/chat"
			case "/inference/models":
				pr.Out.URL.Path = "/api/tags"
			default:
				pr.Out.URL.Path = "/api" + pr.In.URL.Path[len("/inference"):]
			}
		},
		// Negative interval flushes immediately, which keeps streamed
		// responses flowing.
		FlushInterval: -1,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, proxyErr error) {
			a.logger.Warn("inference proxy error",
				slog.String("path", r.URL.Path),
				slog.String("error", proxyErr.Error()),
			)
			http.Error(w, "inference service unavailable", http.StatusBadGateway)
		},
	}
	return proxy
}
