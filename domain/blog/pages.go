package blog

import (
	"net/url"
	"strings"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

const (
	siteName        = "Lingo"
	blogDescription = "Notes on language learning, product updates and stories from the Lingo team."
	displayDate     = "January 2, 2006"
)

type pageConfig struct {
	Title       string
	Description string
	Image       string
}

func layout(config pageConfig, content ...g.Node) g.Node {
	if config.Title == "" {
		config.Title = siteName + " Blog"
	}

	if config.Description == "" {
		config.Description = blogDescription
	}

	return h.Doctype(
		h.HTML(
			h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1.0")),
				h.TitleEl(g.Text(config.Title)),
				h.Meta(h.Name("description"), h.Content(config.Description)),
				h.Meta(g.Attr("property", "og:title"), h.Content(config.Title)),
				h.Meta(g.Attr("property", "og:description"), h.Content(config.Description)),
				g.If(config.Image != "", h.Meta(g.Attr("property", "og:image"), h.Content(config.Image))),
				h.Link(h.Rel("alternate"), h.Type("application/json"), h.Href("/v1/blog/posts")),
			),
			h.Body(
				h.Class("blog"),
				h.Header(
					h.Class("site-header"),
					h.A(h.Href("/"), g.Text(siteName)),
					h.Nav(h.A(h.Href("/blog"), g.Text("Blog"))),
				),
				h.Main(g.Group(content)),
			),
		),
	)
}

// IndexPage lists post summaries. A non-empty tag narrows the heading to that tag.
func IndexPage(posts []PostSummary, tag string) g.Node {
	heading := siteName + " Blog"
	if tag != "" {
		heading = "Posts tagged “" + tag + "”"
	}

	return layout(
		pageConfig{Title: heading},
		h.H1(g.Text(heading)),
		g.If(len(posts) == 0, h.P(h.Class("empty"), g.Text("No posts yet. Check back soon."))),
		h.Ul(
			h.Class("post-list"),
			g.Map(posts, func(post PostSummary) g.Node {
				return h.Li(postCard(post))
			}),
		),
	)
}

// PostPage renders a full article. The body has already been sanitized.
func PostPage(post *Post, related []PostSummary) g.Node {
	return layout(
		pageConfig{Title: post.Title + " | " + siteName, Description: post.Excerpt, Image: post.CoverImage},
		h.Article(
			h.Class("post"),
			h.Header(
				h.H1(g.Text(post.Title)),
				postMeta(post.PostSummary),
				g.If(post.CoverImage != "", h.Img(h.Src(post.CoverImage), h.Alt(post.Title))),
			),
			h.Div(h.Class("post-body"), g.Raw(post.HTML)),
			tagList(post.Tags),
		),
		g.If(len(related) > 0, h.Section(
			h.Class("related"),
			h.H2(g.Text("Keep reading")),
			h.Ul(g.Map(related, func(p PostSummary) g.Node {
				return h.Li(postCard(p))
			})),
		)),
	)
}

func NotFoundPage() g.Node {
	return layout(
		pageConfig{Title: "Post not found | " + siteName},
		h.H1(g.Text("Post not found")),
		h.P(g.Text("The post you are looking for does not exist or has been moved.")),
		h.A(h.Href("/blog"), g.Text("Back to the blog")),
	)
}

func postCard(post PostSummary) g.Node {
	return h.Article(
		h.Class("post-card"),
		h.H2(h.A(h.Href("/blog/"+post.Slug), g.Text(post.Title))),
		postMeta(post),
		g.If(post.Excerpt != "", h.P(g.Text(post.Excerpt))),
	)
}

func postMeta(post PostSummary) g.Node {
	parts := []string{post.Author, post.Date.Format(displayDate), post.ReadingTime}
	if post.Updated != nil {
		parts = append(parts, "updated "+post.Updated.Format(displayDate))
	}

	return h.P(h.Class("post-meta"), g.Text(strings.Join(parts, " · ")))
}

func tagList(tags []string) g.Node {
	if len(tags) == 0 {
		return nil
	}

	return h.Ul(
		h.Class("tags"),
		g.Map(tags, func(tag string) g.Node {
			return h.Li(h.A(h.Href("/blog?tag="+url.QueryEscape(strings.ToLower(tag))), g.Text(tag)))
		}),
	)
}
