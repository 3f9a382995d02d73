// Package rewrite transforms archive content on its way to the client so
// the bundled assets talk to an arbitrary backend through the local proxy.
// Dispatch is purely by logical path: the entry document, the runtime
// config, the main bundle, other scripts, and raw pass-through for
// everything else.
package rewrite

import (
	"bytes"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ditashi/jsbeautifier-go/jsbeautifier"
	"go.uber.org/zap"

	"github.com/screepers/screeps-proxy/pkg/archive"
	"github.com/screepers/screeps-proxy/pkg/config"
	"github.com/screepers/screeps-proxy/pkg/patcher"
	"github.com/screepers/screeps-proxy/pkg/routecodec"
)

const (
	configDocument = "config.js"
	bundleDocument = "build.min.js"

	optionsMarker   = "options="
	optionsSentinel = "apiUrl"

	// Game CDN pointed back at the proxy for non-official backends.
	cdnOrigin = "https://d3os7yery2usni.cloudfront.net"

	officialOrigin = routecodec.OfficialOrigin

	versionTimeout = 5 * time.Second
)

// Context is the per-request routing information URLs are computed from.
// Constructed fresh per request, never shared.
type Context struct {
	// LocalHost is the proxy's own host:port.
	LocalHost string
	// Prefix is the stripped seasonal segment ("season", "ptr") or "".
	Prefix string
	// Backend is the target backend origin, no trailing slash.
	Backend string
	// BackendPath is the local path segment addressing the backend,
	// "/(origin)" in embedded mode and "" in override mode.
	BackendPath string
}

// LocalOrigin is the origin clients use to reach this proxy.
func (c Context) LocalOrigin() string {
	return "http://" + c.LocalHost
}

func (c Context) prefixSegment() string {
	if c.Prefix == "" {
		return ""
	}
	return "/" + c.Prefix
}

// localPath builds a proxy-rooted path on the target backend, re-injecting
// the seasonal prefix.
func (c Context) localPath(inner string) string {
	return c.BackendPath + c.prefixSegment() + inner
}

// Pipeline rewrites archive content per file type. Safe for concurrent use.
type Pipeline struct {
	cfg    config.Config
	log    *zap.Logger
	client *http.Client
}

// New builds a pipeline. The HTTP client only serves the backend version
// check and carries a short timeout so an unreachable backend degrades the
// rewrite instead of hanging the request.
func New(cfg config.Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		log:    logger,
		client: &http.Client{Timeout: versionTimeout},
	}
}

// Rewrite transforms one asset and returns the payload plus its content
// type. It is total: every failure inside a transformation degrades to
// less-rewritten content, never an error.
func (p *Pipeline) Rewrite(archivePath string, content []byte, ctx Context) ([]byte, string) {
	switch {
	case archivePath == archive.EntryDocument:
		content = p.rewriteEntry(content, ctx)
	case archivePath == configDocument:
		content = p.rewriteConfig(content, ctx)
	case archivePath == bundleDocument:
		content = p.rewriteBundle(content, ctx)
	case strings.HasSuffix(archivePath, ".js"):
		content = p.rewriteScript(content, ctx)
	}
	// Binary assets (images, fonts, source maps) pass through untouched.
	return content, archive.ContentType(archivePath)
}

// trackingVendors maps third-party script fingerprints to inert stubs that
// swallow calls to the corresponding globals. Matched by substring against
// the script tag's src and body.
var trackingVendors = []struct {
	substring string
	stub      string
}{
	{"xsolla", "window.XPayStationWidget={init:function(){},open:function(){},on:function(){}};"},
	{"google-analytics", "window.ga=function(){};"},
	{"facebook", "window.fbq=function(){};"},
	{"onRecaptchaLoadCallback", "window.onRecaptchaLoadCallback=function(){};"},
}

// rewriteEntry injects the startup script at the top of <head> and replaces
// recognized tracking/payment scripts with inert stubs.
func (p *Pipeline) rewriteEntry(content []byte, ctx Context) []byte {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		p.log.Warn("could not parse entry document", zap.Error(err))
		return content
	}

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		blob := src + s.Text()
		for _, vendor := range trackingVendors {
			if strings.Contains(blob, vendor.substring) {
				s.ReplaceWithHtml("<script>" + vendor.stub + "</script>")
				return
			}
		}
	})

	doc.Find("head").PrependHtml(p.bootScript(ctx))

	html, err := doc.Html()
	if err != nil {
		p.log.Warn("could not render entry document", zap.Error(err))
		return content
	}
	return []byte(html)
}

// bootScript is the startup block the client runs before any bundled code:
// it records which backend this page is bound to so devtools and the
// landing page can find their way back.
func (p *Pipeline) bootScript(ctx Context) string {
	return "<script>window.LOCAL_PROXY={" +
		"host:" + strconv.Quote(ctx.LocalHost) + "," +
		"backend:" + strconv.Quote(ctx.Backend) + "," +
		"prefix:" + strconv.Quote(ctx.Prefix) + "};</script>"
}

// Runtime config assignments, anchored to their left-hand tokens so
// unrelated text is untouched.
var (
	apiURLPattern       = regexp.MustCompile(`API_URL\s*=\s*'[^']*'`)
	historyURLPattern   = regexp.MustCompile(`HISTORY_URL\s*=\s*'[^']*'`)
	websocketURLPattern = regexp.MustCompile(`WEBSOCKET_URL\s*=\s*'[^']*'`)
	prefixPattern       = regexp.MustCompile(`PREFIX:\s*'[^']*'`)
	ptrPattern          = regexp.MustCompile(`PTR:\s*(?:true|false)`)
)

// rewriteConfig substitutes the runtime config's endpoint assignments with
// proxy-rooted values.
func (p *Pipeline) rewriteConfig(content []byte, ctx Context) []byte {
	out := string(content)

	out = apiURLPattern.ReplaceAllString(out, "API_URL = '"+ctx.localPath("/api/")+"'")
	out = historyURLPattern.ReplaceAllString(out, "HISTORY_URL = '"+ctx.localPath("/room-history/")+"'")
	out = websocketURLPattern.ReplaceAllString(out, "WEBSOCKET_URL = 'ws://"+ctx.LocalHost+ctx.localPath("/socket/")+"'")

	prefix := ""
	if ctx.Prefix == "season" {
		prefix = "season"
	}
	out = prefixPattern.ReplaceAllString(out, "PREFIX: '"+prefix+"'")
	out = ptrPattern.ReplaceAllString(out, "PTR: "+strconv.FormatBool(ctx.Prefix == "ptr"))

	return []byte(out)
}

// rewriteBundle patches the main bundle: injects host/port/official into
// the runtime options literal, points the room-history and CDN URLs at the
// proxy for non-official backends, and rewrites the official web origin.
func (p *Pipeline) rewriteBundle(content []byte, ctx Context) []byte {
	official := strings.EqualFold(ctx.Backend, officialOrigin)
	officialLike := official || p.fetchOfficialLike(p.cfg.OutboundOrigin(ctx.Backend))

	host, port := backendHostPort(ctx.Backend)
	out := patcher.Patch(string(content), optionsMarker, optionsSentinel, []patcher.Field{
		{Name: "host", Value: strconv.Quote(host)},
		{Name: "port", Value: strconv.Itoa(port)},
		{Name: "official", Value: strconv.FormatBool(officialLike)},
	})

	if !official {
		out = strings.ReplaceAll(out, officialOrigin+"/room-history", ctx.LocalOrigin()+ctx.BackendPath+"/room-history")
		out = strings.ReplaceAll(out, cdnOrigin, ctx.LocalOrigin()+ctx.BackendPath)
	}
	out = rewriteOfficialOrigin(out, ctx)

	if p.cfg.Beautify {
		out = p.beautify(out)
	}
	return []byte(out)
}

// rewriteScript is the generic script path: official-origin rewrite plus
// optional pretty-printing.
func (p *Pipeline) rewriteScript(content []byte, ctx Context) []byte {
	out := rewriteOfficialOrigin(string(content), ctx)
	if p.cfg.Beautify {
		out = p.beautify(out)
	}
	return []byte(out)
}

// rewriteOfficialOrigin maps hardcoded references to the official web
// origin onto the locally computed origin.
func rewriteOfficialOrigin(s string, ctx Context) string {
	return strings.ReplaceAll(s, officialOrigin, ctx.LocalOrigin()+ctx.BackendPath)
}

func (p *Pipeline) beautify(src string) string {
	out, err := jsbeautifier.Beautify(&src, jsbeautifier.DefaultOptions())
	if err != nil {
		p.log.Warn("beautify failed, serving source as-is", zap.Error(err))
		return src
	}
	return out
}

// backendHostPort splits a backend origin into the host and port injected
// into the options literal, defaulting the port by scheme.
func backendHostPort(origin string) (string, int) {
	u, err := url.Parse(origin)
	if err != nil {
		return origin, 80
	}

	port := 80
	if u.Scheme == "https" || u.Scheme == "wss" {
		port = 443
	}
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	return u.Hostname(), port
}
