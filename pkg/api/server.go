package api

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"com.aviebrantz.pricetracker/pkg/config"
	"com.aviebrantz.pricetracker/pkg/core/catalog"
	"com.aviebrantz.pricetracker/pkg/core/store/products"
	"com.aviebrantz.pricetracker/pkg/core/timeline"
	"com.aviebrantz.pricetracker/pkg/metrics"
	"github.com/apex/log"
	"github.com/gofiber/fiber"
	"github.com/gofiber/fiber/middleware"
)

// Catalog is the read model served by the API.
type Catalog interface {
	LastWishlist(ctx context.Context) (*catalog.WishlistView, error)
	NewestProducts(ctx context.Context) ([]*products.Product, error)
	ArchiveSize(ctx context.Context) (int, error)
	ArchivedProducts(ctx context.Context, page, perPage int) ([]*products.Product, error)
	Timeline(ctx context.Context, from int64, count int) ([]timeline.Datapoint, error)
	Resolution() int64
}

type ApiServer struct {
	app      *fiber.App
	catalog  Catalog
	config   config.APIServerConfig
	timeline config.TimelineConfig
	now      func() time.Time
	logger   *log.Entry
}

func NewServer(
	catalog Catalog,
	config config.APIServerConfig,
	timelineConfig config.TimelineConfig,
) *ApiServer {
	as := &ApiServer{
		app:      fiber.New(&fiber.Settings{DisableStartupMessage: true}),
		catalog:  catalog,
		config:   config,
		timeline: timelineConfig,
		now:      time.Now,
		logger:   log.WithField("module", "api-server"),
	}
	as.routes()
	return as
}

func (as *ApiServer) routes() {
	as.app.Use(middleware.Compress())
	as.app.Use(as.requestLogger)

	as.app.Get("/api/wishlist/last", as.getLastWishlist)
	as.app.Get("/api/wishlist/values", as.getWishlistValues)
	as.app.Get("/api/product/newest", as.getNewestProducts)
	as.app.Get("/api/product/archive", as.getArchivedProducts)

	as.app.Static("/", as.config.PublicDir)
	as.app.Get("*", as.getIndex)
}

func (as *ApiServer) requestLogger(ctx *fiber.Ctx) {
	startTime := time.Now()
	ctx.Next()

	status := ctx.Fasthttp.Response.StatusCode()
	metrics.RecordRequest(routeLabel(ctx.Path()), strconv.Itoa(status), startTime)
	as.logger.Infof("%s %s %d", ctx.Method(), ctx.OriginalURL(), status)
}

func routeLabel(path string) string {
	if strings.HasPrefix(path, "/api/") {
		return path
	}
	return "static"
}

func (as *ApiServer) getIndex(ctx *fiber.Ctx) {
	ctx.SendFile(filepath.Join(as.config.PublicDir, "index.html"))
}

func (as *ApiServer) fail(ctx *fiber.Ctx, message string, err error) {
	as.logger.WithError(err).Error(message)
	ctx.Status(fiber.StatusInternalServerError)
	ctx.JSON(fiber.Map{"message": message})
}

// Start blocks serving HTTP until Shutdown is called.
func (as *ApiServer) Start() error {
	as.logger.Infof("Starting API server on port %d", as.config.Port)
	return as.app.Listen(":" + strconv.Itoa(as.config.Port))
}

func (as *ApiServer) Shutdown() error {
	return as.app.Shutdown()
}
