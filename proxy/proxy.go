// Package proxy provides a local development server that forwards
// prefix-matched requests to a backend and serves everything else from disk.
package proxy

import (
	"net"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/devproxy/pkg/proxyrule"
)

// InternalPrefix is reserved for the server's own endpoints. It is
// registered ahead of the proxy rules and is never forwarded.
const InternalPrefix = proxyrule.ReservedPrefix

// ErrorResponse is the JSON body of error replies.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RuleSummary describes a loaded rule on the rules endpoint.
type RuleSummary struct {
	Prefix       string           `json:"prefix"`
	Target       string           `json:"target"`
	ChangeOrigin bool             `json:"change_origin"`
	PathRewrite  []RewriteSummary `json:"path_rewrite,omitempty"`
	Secure       bool             `json:"secure"`
	XForwarded   bool             `json:"xfwd"`
}

// RewriteSummary is one pathRewrite entry.
type RewriteSummary struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
}

// Proxy is the development server. Rules and forwarders are built once in
// New and only read afterwards.
type Proxy struct {
	config     Config
	logger     *zap.Logger
	server     *fiber.App
	forwarders map[string]fiber.Handler
}

// New creates a new Proxy.
func New(config Config, logger *zap.Logger) (*Proxy, error) {
	bodyLimit := config.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit,
	})

	p := &Proxy{
		config:     config,
		logger:     logger,
		server:     app,
		forwarders: make(map[string]fiber.Handler, config.Rules.Len()),
	}

	for _, rule := range config.Rules.Rules() {
		p.forwarders[rule.MatchPrefix] = newForwarder(rule, logger)
	}

	app.Get(InternalPrefix+"/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
	app.Get(InternalPrefix+"/rules", p.handleRules)

	app.Use(p.handleProxy)

	if config.StaticDir != "" {
		app.Static("/", config.StaticDir)
		logger.Info("serving static files", zap.String("dir", config.StaticDir))
	}

	app.Use(p.handleNotFound)

	return p, nil
}

// Run starts the server on the configured listening address.
func (p *Proxy) Run() error {
	p.logStartup(p.config.ListenAddr)
	return p.server.Listen(p.config.ListenAddr)
}

// RunWithListener serves on an existing listener.
func (p *Proxy) RunWithListener(ln net.Listener) error {
	p.logStartup(ln.Addr().String())
	return p.server.Listener(ln)
}

// Shutdown gracefully stops the server.
func (p *Proxy) Shutdown() error {
	return p.server.Shutdown()
}

func (p *Proxy) logStartup(addr string) {
	p.logger.Info("starting dev server",
		zap.String("listen", addr),
		zap.Int("rules", p.config.Rules.Len()),
	)
	for _, rule := range p.config.Rules.Rules() {
		p.logger.Info("proxy rule",
			zap.String("prefix", rule.MatchPrefix),
			zap.String("target", rule.Target.String()),
			zap.Bool("change_origin", rule.ChangeOrigin),
		)
	}
}

// handleProxy forwards the request if a rule claims its path and passes it
// down the chain otherwise.
func (p *Proxy) handleProxy(c *fiber.Ctx) error {
	if proxyrule.IsReserved(c.Path()) {
		return p.handleNotFound(c)
	}

	rule, ok := p.config.Rules.Match(c.Path())
	if !ok {
		return c.Next()
	}

	if ce := p.logger.Check(zap.DebugLevel, "forwarding request"); ce != nil {
		dst := rule.Destination(c.Path(), string(c.Request().URI().QueryString()))
		ce.Write(
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("prefix", rule.MatchPrefix),
			zap.String("destination", dst.String()),
			zap.String("host", rule.OutboundHost(string(c.Request().Host()))),
		)
	}

	return p.forwarders[rule.MatchPrefix](c)
}

func (p *Proxy) handleNotFound(c *fiber.Ctx) error {
	p.logger.Debug("no rule or file for request", zap.String("path", c.Path()))
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "not found: " + c.Path()})
}

// handleRules lists the loaded rules in evaluation order.
func (p *Proxy) handleRules(c *fiber.Ctx) error {
	rules := p.config.Rules.Rules()
	summaries := make([]RuleSummary, 0, len(rules))
	for _, rule := range rules {
		s := RuleSummary{
			Prefix:       rule.MatchPrefix,
			Target:       rule.Target.String(),
			ChangeOrigin: rule.ChangeOrigin,
			Secure:       rule.Secure,
			XForwarded:   rule.XForwarded,
		}
		for _, rw := range rule.PathRewrite {
			s.PathRewrite = append(s.PathRewrite, RewriteSummary{
				Pattern:     rw.Pattern.String(),
				Replacement: rw.Replacement,
			})
		}
		summaries = append(summaries, s)
	}

	return c.JSON(map[string]any{
		"count": len(summaries),
		"rules": summaries,
	})
}
