package devconfig

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/devproxy/pkg/proxyrule"
)

// fileConfig is the on-disk shape:
//
//	[devServer.proxy."/api"]
//	target = "http://localhost/expense-tracker-backend"
//	changeOrigin = true
//	pathRewrite = { "^/api" = "" }
type fileConfig struct {
	DevServer devServerConfig `toml:"devServer"`
}

type devServerConfig struct {
	Host   string                     `toml:"host"`
	Port   int                        `toml:"port"`
	Static string                     `toml:"static"`
	Proxy  map[string]proxyRuleConfig `toml:"proxy"`
}

type proxyRuleConfig struct {
	Target       string            `toml:"target"`
	ChangeOrigin bool              `toml:"changeOrigin"`
	PathRewrite  map[string]string `toml:"pathRewrite"`
	Secure       *bool             `toml:"secure"`
	XFwd         bool              `toml:"xfwd"`
	Headers      map[string]string `toml:"headers"`
}

// ErrNoRules is reported when the config declares no proxy rule.
var ErrNoRules = errors.New("at least one proxy rule is required")

// Error is a validation failure tied to a key in the config file.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return e.Key + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads and validates the config file at path. Any problem, from a
// missing file to a single bad rule, is returned as an error and no
// Config is produced.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open config %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses and validates a config document from r.
func Decode(r io.Reader) (*Config, error) {
	var raw fileConfig
	md, err := toml.NewDecoder(r).Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	var errs []error
	for _, key := range md.Undecoded() {
		errs = append(errs, &Error{Key: key.String(), Err: errors.New("unknown key")})
	}

	cfg := &Config{
		Host:   raw.DevServer.Host,
		Port:   raw.DevServer.Port,
		Static: raw.DevServer.Static,
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		errs = append(errs, &Error{
			Key: "devServer.port",
			Err: fmt.Errorf("port %d out of range", cfg.Port),
		})
	}

	prefixes := orderedKeys(md, toml.Key{"devServer", "proxy"}, raw.DevServer.Proxy)
	if len(prefixes) == 0 {
		errs = append(errs, &Error{
			Key: "devServer.proxy",
			Err: ErrNoRules,
		})
	}
	rules := make([]*proxyrule.Rule, 0, len(prefixes))
	for _, prefix := range prefixes {
		ruleKey := toml.Key{"devServer", "proxy", prefix}
		rule, ruleErrs := buildRule(md, ruleKey, prefix, raw.DevServer.Proxy[prefix])
		errs = append(errs, ruleErrs...)
		if rule != nil {
			rules = append(rules, rule)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	cfg.rules, err = proxyrule.NewTable(rules...)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildRule(md toml.MetaData, key toml.Key, prefix string, raw proxyRuleConfig) (*proxyrule.Rule, []error) {
	var errs []error
	fail := func(field string, err error) {
		k := key
		if field != "" {
			k = append(append(toml.Key{}, key...), field)
		}
		errs = append(errs, &Error{Key: k.String(), Err: err})
	}

	rule := &proxyrule.Rule{
		MatchPrefix:  prefix,
		ChangeOrigin: raw.ChangeOrigin,
		Secure:       raw.Secure == nil || *raw.Secure,
		XForwarded:   raw.XFwd,
		Headers:      raw.Headers,
	}

	if prefix == "" {
		fail("", errors.New("match prefix must not be empty"))
	}

	if !md.IsDefined(append(append(toml.Key{}, key...), "target")...) {
		fail("target", errors.New("required field missing"))
	} else if target, err := url.Parse(raw.Target); err != nil {
		fail("target", err)
	} else if err := proxyrule.ValidateTarget(target); err != nil {
		fail("target", err)
	} else {
		rule.Target = target
	}

	rewriteKey := append(append(toml.Key{}, key...), "pathRewrite")
	for _, pattern := range orderedKeys(md, rewriteKey, raw.PathRewrite) {
		rw, err := proxyrule.NewRewrite(pattern, raw.PathRewrite[pattern])
		if err != nil {
			fail("pathRewrite", err)
			continue
		}
		rule.PathRewrite = append(rule.PathRewrite, rw)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	if err := rule.Validate(); err != nil {
		return nil, []error{&Error{Key: key.String(), Err: err}}
	}
	return rule, nil
}

// orderedKeys returns the keys of m in the order they were declared under
// parent. Keys the metadata does not report are appended sorted.
func orderedKeys[V any](md toml.MetaData, parent toml.Key, m map[string]V) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]struct{}, len(m))

	for _, k := range md.Keys() {
		if len(k) != len(parent)+1 || !hasParent(k, parent) {
			continue
		}
		name := k[len(parent)]
		if _, ok := m[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	var rest []string
	for name := range m {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func hasParent(k, parent toml.Key) bool {
	for i := range parent {
		if k[i] != parent[i] {
			return false
		}
	}
	return true
}
