package api

import (
	"github.com/gofiber/fiber"
)

func (as *ApiServer) getLastWishlist(ctx *fiber.Ctx) {
	wishlist, err := as.catalog.LastWishlist(ctx.Context())
	if err != nil {
		as.fail(ctx, "Could not retrieve last wishlist", err)
		return
	}

	if wishlist == nil {
		ctx.Status(fiber.StatusNotFound)
		ctx.JSON(fiber.Map{"message": "no wishlist recorded"})
		return
	}

	ctx.JSON(wishlist)
}

func (as *ApiServer) getWishlistValues(ctx *fiber.Ctx) {
	from, count := timelineParams(
		ctx.Query("from_timestamp"),
		ctx.Query("count"),
		as.now(),
		as.catalog.Resolution(),
		as.timeline,
	)

	points, err := as.catalog.Timeline(ctx.Context(), from, count)
	if err != nil {
		as.fail(ctx, "Could not compute wishlist timeline", err)
		return
	}

	ctx.JSON(points)
}
