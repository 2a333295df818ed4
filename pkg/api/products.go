package api

import (
	"strconv"

	"github.com/gofiber/fiber"
)

func (as *ApiServer) getNewestProducts(ctx *fiber.Ctx) {
	list, err := as.catalog.NewestProducts(ctx.Context())
	if err != nil {
		as.fail(ctx, "Could not retrieve newest products", err)
		return
	}

	ctx.JSON(list)
}

func (as *ApiServer) getArchivedProducts(ctx *fiber.Ctx) {
	c := ctx.Context()
	page, perPage := archiveParams(ctx.Query("page"), ctx.Query("per_page"))

	total, err := as.catalog.ArchiveSize(c)
	if err != nil {
		as.fail(ctx, "Could not retrieve archive size", err)
		return
	}

	list, err := as.catalog.ArchivedProducts(c, page, perPage)
	if err != nil {
		as.fail(ctx, "Could not retrieve archived products", err)
		return
	}

	ctx.Set("X-Paging-TotalRecordCount", strconv.Itoa(total))
	ctx.JSON(list)
}
