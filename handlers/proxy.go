package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"go.uber.org/zap"

	"github.com/screepers/screeps-proxy/pkg/archive"
	"github.com/screepers/screeps-proxy/pkg/config"
	"github.com/screepers/screeps-proxy/pkg/rewrite"
	"github.com/screepers/screeps-proxy/pkg/routecodec"
)

// authPathPrefix marks backend endpoints that need the returnUrl query
// parameter so the backend can redirect back through the proxy.
const authPathPrefix = "/api/auth"

// Dispatcher decides per request whether to serve a rewritten archive asset
// or to pass the request through to the resolved backend.
type Dispatcher struct {
	cfg      config.Config
	codec    *routecodec.Codec
	store    *archive.Store
	pipeline *rewrite.Pipeline
	log      *zap.Logger
}

// NewDispatcher wires the dispatcher from its collaborators. All state is
// read-only after construction, so the handler is safe for concurrent
// requests.
func NewDispatcher(cfg config.Config, codec *routecodec.Codec, store *archive.Store, pipeline *rewrite.Pipeline, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{cfg: cfg, codec: codec, store: store, pipeline: pipeline, log: logger}
}

// Handle is the catch-all fiber handler.
func (d *Dispatcher) Handle(c *fiber.Ctx) error {
	route, ok := d.codec.Decode(c.Path())
	if !ok {
		d.log.Warn("unroutable request", zap.String("path", c.Path()))
		return c.Status(fiber.StatusBadRequest).SendString("unroutable path")
	}

	official := route.Official() && !d.codec.Override()
	archivePath, prefix, found := d.store.Resolve(route.Inner, official)
	if !found {
		// Not an error: backend API endpoints have no archive entry.
		return d.forward(c, route)
	}
	return d.serveAsset(c, route, archivePath, prefix)
}

func (d *Dispatcher) serveAsset(c *fiber.Ctx, route routecodec.Route, archivePath, prefix string) error {
	// Freshness check happens before any decompression or rewrite work.
	if ims := c.Get(fiber.HeaderIfModifiedSince); ims != "" {
		if t, err := time.Parse(http.TimeFormat, ims); err == nil && d.store.Unchanged(t) {
			return c.SendStatus(fiber.StatusNotModified)
		}
	}

	content, err := d.store.ReadFile(archivePath)
	if err != nil {
		d.log.Error("reading archive entry", zap.String("path", archivePath), zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	body, contentType := d.pipeline.Rewrite(archivePath, content, rewrite.Context{
		LocalHost:   d.cfg.LocalHost(),
		Prefix:      prefix,
		Backend:     route.Backend,
		BackendPath: d.codec.Encode(route.Backend),
	})

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderLastModified, d.store.LastModified().UTC().Format(http.TimeFormat))
	if c.Request().URI().QueryArgs().Has("bust") {
		// Versioned request: the content can never change under this URL.
		c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	}
	return c.Send(body)
}

// forward streams the request to the backend and the backend's response
// back, unmodified apart from the auth returnUrl adjustment. No retries, no
// caching of failures.
func (d *Dispatcher) forward(c *fiber.Ctx, route routecodec.Route) error {
	target := d.cfg.OutboundOrigin(route.Backend) + route.Inner

	query := string(c.Request().URI().QueryString())
	if strings.HasPrefix(route.Inner, authPathPrefix) {
		returnURL := url.Values{"returnUrl": {route.Backend}}.Encode()
		if query != "" {
			query += "&"
		}
		query += returnURL
	}
	if query != "" {
		target += "?" + query
	}

	if err := proxy.Do(c, target); err != nil {
		d.log.Warn("backend forwarding failed", zap.String("target", target), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).SendString("backend unreachable")
	}
	return nil
}
