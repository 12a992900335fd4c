package music

import (
	"net/http"
	"time"

	"github.com/akeren/lingo-site/config/router"
	"github.com/akeren/lingo-site/internal/log"
	apperrors "github.com/akeren/lingo-site/pkg/errors"
	"github.com/akeren/lingo-site/pkg/factory"
)

const musicRequestsPerMinute = 60

func NewMusicController(logger *log.Logger, limiters factory.RateLimiterFactory, options ServiceOptions) *router.RESTController {
	return router.NewRESTController(
		"MusicController",
		"/api/music",
		func(rs *router.RouterService, c *router.RESTController) {
			service := NewMusicService(logger, options)

			rs.AddGetHandler(c, limiters.CreateRateLimiter("music", musicRequestsPerMinute, time.Minute), "", listTracksHandler(service))
		},
	)
}

// NewMusicFilesController serves the audio files referenced by each track's src.
func NewMusicFilesController(logger *log.Logger, options ServiceOptions) *router.RESTController {
	return router.NewRESTController(
		"MusicFilesController",
		options.PublicPath,
		func(rs *router.RouterService, c *router.RESTController) {
			service := NewMusicService(logger, options)

			rs.AddRawHandler(c, nil, http.MethodGet, ":file", serveTrackHandler(service))
		},
	)
}

func listTracksHandler(service MusicService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		tracks, err := service.ListTracks(ctx.Request.Context())
		if err != nil {
			// The player treats an empty list as "no music", so the body stays usable.
			return router.ErrorResult(http.StatusInternalServerError, apperrors.GetHumanReadableMessage(err), []Track{})
		}

		return router.OKResult(tracks, "Tracks retrieved successfully")
	}
}

func serveTrackHandler(service MusicService) router.MiddlewareFunc {
	return func(ctx *router.RequestContext) {
		path, err := service.TrackPath(ctx.Request.Context(), ctx.Param("file"))
		if err != nil {
			ctx.JSON(apperrors.HTTPStatusCode(err), router.NotFoundResult(apperrors.GetHumanReadableMessage(err)).ToJSON())
			return
		}

		ctx.Header("Cache-Control", "public, max-age=86400")
		ctx.File(path)
	}
}
