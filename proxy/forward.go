package proxy

import (
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httputil"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/devproxy/pkg/proxyrule"
)

// newForwarder builds the handler that sends requests claimed by rule to
// its target. The fasthttp proxy in fiber always rewrites Host to the
// target, so forwarding goes through httputil.ReverseProxy, which lets
// changeOrigin decide.
func newForwarder(rule *proxyrule.Rule, logger *zap.Logger) fiber.Handler {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !rule.Secure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in per rule
	}

	rp := &httputil.ReverseProxy{
		Transport: transport,
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL = rule.Destination(pr.In.URL.EscapedPath(), pr.In.URL.RawQuery)
			pr.Out.Host = rule.OutboundHost(pr.In.Host)
			if rule.XForwarded {
				pr.SetXForwarded()
			}
			for k, v := range rule.Headers {
				pr.Out.Header.Set(k, v)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("upstream request failed",
				zap.String("prefix", rule.MatchPrefix),
				zap.String("target", rule.Target.String()),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "upstream request failed"})
		},
	}

	return adaptor.HTTPHandler(rp)
}
