// Package app renders the public blog pages and sitemap.
package app

import (
	"database/sql"
	"embed"
	"encoding/xml"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/tarokuma555-maker/mogumogu-sub000/app/config"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// LoadTemplates installs the embedded blog templates on the router.
func LoadTemplates(router *gin.Engine) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))
	router.SetHTMLTemplate(tmpl)
}

// BlogIndex lists published posts, newest first.
func BlogIndex(c *gin.Context) {
	posts, err := listPublishedPosts(c.Request.Context())
	if err != nil {
		log.Printf("blog list failed: %v", err)
		posts = nil
	}

	c.HTML(http.StatusOK, "blog_index.html", gin.H{
		"Posts": posts,
	})
}

// BlogShow renders one post, bumping its view counter best-effort.
func BlogShow(c *gin.Context) {
	slug := c.Param("slug")

	post, err := getPostBySlug(c.Request.Context(), slug)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("blog lookup failed slug=%s: %v", slug, err)
		}
		c.HTML(http.StatusNotFound, "blog_404.html", gin.H{})
		return
	}

	if err := incrementViewCount(c.Request.Context(), slug); err != nil {
		log.Printf("view count increment failed slug=%s: %v", slug, err)
	}

	c.HTML(http.StatusOK, "blog_show.html", gin.H{
		"Post": post,
		"Body": template.HTML(post.BodyHTML),
	})
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap serves sitemap.xml covering the static pages and the blog.
func Sitemap(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		set := sitemapURLSet{
			Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
			URLs: []sitemapURL{
				{Loc: cfg.BaseURL + "/"},
				{Loc: cfg.BaseURL + "/blog"},
			},
		}

		posts, err := listPublishedPosts(c.Request.Context())
		if err != nil {
			log.Printf("sitemap post list failed: %v", err)
		}
		for _, p := range posts {
			set.URLs = append(set.URLs, sitemapURL{
				Loc:     cfg.BaseURL + "/blog/" + p.Slug,
				LastMod: p.PublishedAt.Format(time.DateOnly),
			})
		}

		c.XML(http.StatusOK, set)
	}
}
