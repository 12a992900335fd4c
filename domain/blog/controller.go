package blog

import (
	"net/http"
	"strconv"
	"time"

	"github.com/akeren/lingo-site/config/router"
	"github.com/akeren/lingo-site/internal/log"
	apperrors "github.com/akeren/lingo-site/pkg/errors"
	"github.com/akeren/lingo-site/pkg/factory"
	g "maragu.dev/gomponents"
)

const blogRequestsPerMinute = 120

type ControllerOptions struct {
	ContentDir string
	ShowDrafts bool
}

func newService(logger *log.Logger, options ControllerOptions) BlogService {
	repository := NewFileRepository(options.ContentDir, NewRenderer())
	return NewBlogService(logger, repository, ServiceOptions{ShowDrafts: options.ShowDrafts})
}

// NewBlogController serves the JSON API used by the front end.
func NewBlogController(
	logger *log.Logger,
	limiters factory.RateLimiterFactory,
	options ControllerOptions,
) *router.RESTController {

	return router.NewVersionedRESTController(
		"BlogController",
		"v1",
		"/blog",
		func(rs *router.RouterService, c *router.RESTController) {
			service := newService(logger, options)

			c.RateLimitWith(rs, limiters.CreateRateLimiter("blog", blogRequestsPerMinute, time.Minute))

			rs.AddGetHandler(c, nil, "posts", listPostsHandler(service))
			rs.AddGetHandler(c, nil, "posts/:slug", getPostHandler(service))
			rs.AddGetHandler(c, nil, "posts/:slug/related", relatedPostsHandler(service))
			rs.AddGetHandler(c, nil, "tags", listTagsHandler(service))
			rs.AddGetHandler(c, nil, "tags/:tag", listPostsByTagHandler(service))
		},
	)
}

// NewBlogPagesController serves the server-rendered blog pages.
func NewBlogPagesController(
	logger *log.Logger,
	limiters factory.RateLimiterFactory,
	options ControllerOptions,
) *router.RESTController {

	return router.NewRESTController(
		"BlogPagesController",
		"/blog",
		func(rs *router.RouterService, c *router.RESTController) {
			service := newService(logger, options)

			c.RateLimitWith(rs, limiters.CreateRateLimiter("blog-pages", blogRequestsPerMinute, time.Minute))

			rs.AddRawHandler(c, nil, http.MethodGet, "", indexPageHandler(service))
			rs.AddRawHandler(c, nil, http.MethodGet, ":slug", postPageHandler(service))
		},
	)
}

func errorResult(err error) *router.ServiceResult {
	return router.ErrorResult(
		apperrors.HTTPStatusCode(err),
		apperrors.GetHumanReadableMessage(err),
		nil,
	)
}

func listPostsHandler(service BlogService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		posts, err := service.ListPosts(ctx.Request.Context())
		if err != nil {
			return errorResult(err)
		}

		return router.OKResult(posts, "Posts retrieved successfully")
	}
}

func getPostHandler(service BlogService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		post, err := service.GetPost(ctx.Request.Context(), ctx.Param("slug"))
		if err != nil {
			return errorResult(err)
		}

		return router.OKResult(post, "Post retrieved successfully")
	}
}

func relatedPostsHandler(service BlogService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		limit := 0
		if raw := ctx.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > 20 {
				return router.BadRequestResult("limit must be between 1 and 20", nil)
			}
			limit = parsed
		}

		related, err := service.RelatedPosts(ctx.Request.Context(), ctx.Param("slug"), limit)
		if err != nil {
			return errorResult(err)
		}

		return router.OKResult(related, "Related posts retrieved successfully")
	}
}

func listTagsHandler(service BlogService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		tags, err := service.ListTags(ctx.Request.Context())
		if err != nil {
			return errorResult(err)
		}

		return router.OKResult(tags, "Tags retrieved successfully")
	}
}

func listPostsByTagHandler(service BlogService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		posts, err := service.ListPostsByTag(ctx.Request.Context(), ctx.Param("tag"))
		if err != nil {
			return errorResult(err)
		}

		return router.OKResult(posts, "Posts retrieved successfully")
	}
}

func indexPageHandler(service BlogService) router.MiddlewareFunc {
	return func(ctx *router.RequestContext) {
		tag := ctx.Query("tag")

		var (
			posts []PostSummary
			err   error
		)
		if tag != "" {
			posts, err = service.ListPostsByTag(ctx.Request.Context(), tag)
		} else {
			posts, err = service.ListPosts(ctx.Request.Context())
		}

		if err != nil {
			router.GetLogger(ctx).Error("Failed to render blog index", "error", err)
			ctx.JSON(apperrors.HTTPStatusCode(err), errorResult(err).ToJSON())
			return
		}

		renderPage(ctx, http.StatusOK, IndexPage(posts, tag))
	}
}

func postPageHandler(service BlogService) router.MiddlewareFunc {
	return func(ctx *router.RequestContext) {
		slug := ctx.Param("slug")

		post, err := service.GetPost(ctx.Request.Context(), slug)
		if err != nil {
			if apperrors.HTTPStatusCode(err) == http.StatusNotFound {
				renderPage(ctx, http.StatusNotFound, NotFoundPage())
				return
			}
			router.GetLogger(ctx).Error("Failed to render blog post", "slug", slug, "error", err)
			ctx.JSON(apperrors.HTTPStatusCode(err), errorResult(err).ToJSON())
			return
		}

		related, err := service.RelatedPosts(ctx.Request.Context(), slug, 0)
		if err != nil {
			router.GetLogger(ctx).Warn("Failed to load related posts", "slug", slug, "error", err)
			related = nil
		}

		renderPage(ctx, http.StatusOK, PostPage(post, related))
	}
}

func renderPage(ctx *router.RequestContext, status int, page g.Node) {
	ctx.Header("Content-Type", "text/html; charset=utf-8")
	ctx.Status(status)

	if err := page.Render(ctx.Writer); err != nil {
		router.GetLogger(ctx).Error("Failed to write page", "error", err)
	}
}
