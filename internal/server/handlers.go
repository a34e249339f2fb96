package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bibliography/internal/citation"
	"bibliography/internal/plugin"
	"bibliography/internal/suggest"
	"bibliography/internal/vocabulary"
)

func (s *Server) healthCheck(c *gin.Context) {
	body := gin.H{"status": "ok", "version": s.opts.Version}
	if s.opts.Store != nil {
		stats, err := s.opts.Store.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		body["store"] = stats
	}
	c.JSON(http.StatusOK, body)
}

type vocabularySummary struct {
	vocabulary.Vocabulary
	Classes    int `json:"classes"`
	Properties int `json:"properties"`
}

// handleVocabularies lists stored vocabularies with their term counts.
func (s *Server) handleVocabularies(c *gin.Context) {
	if s.opts.Store == nil {
		handleError(c, newAPIError(http.StatusServiceUnavailable, "No store configured", nil))
		return
	}
	ctx := c.Request.Context()
	vocabs, err := s.opts.Store.ListVocabularies(ctx)
	if err != nil {
		handleError(c, err)
		return
	}
	out := make([]vocabularySummary, 0, len(vocabs))
	for _, v := range vocabs {
		classes, props, err := s.opts.Store.CountTerms(ctx, v.ID)
		if err != nil {
			handleError(c, err)
			return
		}
		out = append(out, vocabularySummary{Vocabulary: v, Classes: classes, Properties: props})
	}
	c.JSON(http.StatusOK, out)
}

type termView struct {
	Term      string  `json:"term"`
	IRI       string  `json:"iri"`
	LocalName string  `json:"local_name"`
	Label     string  `json:"label"`
	Comment   *string `json:"comment,omitempty"`
}

func termViews(v *vocabulary.Vocabulary, rows []vocabulary.TermRow) []termView {
	out := make([]termView, 0, len(rows))
	for _, r := range rows {
		out = append(out, termView{
			Term:      v.Prefix + ":" + r.LocalName,
			IRI:       v.IRI(r.LocalName),
			LocalName: r.LocalName,
			Label:     r.Label,
			Comment:   r.Comment,
		})
	}
	return out
}

// handleVocabulary returns one vocabulary with its classes and properties.
func (s *Server) handleVocabulary(c *gin.Context) {
	if s.opts.Store == nil {
		handleError(c, newAPIError(http.StatusServiceUnavailable, "No store configured", nil))
		return
	}
	ctx := c.Request.Context()
	prefix := c.Param("prefix")
	v, err := s.opts.Store.FindVocabularyByPrefix(ctx, prefix)
	if err != nil {
		handleError(c, err)
		return
	}
	if v == nil {
		handleError(c, newAPIError(http.StatusNotFound, "Vocabulary not found", fmt.Errorf("no vocabulary with prefix %q", prefix)))
		return
	}

	classes, err := s.opts.Store.ListClasses(ctx, v.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	props, err := s.opts.Store.ListProperties(ctx, v.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vocabulary": v,
		"classes":    termViews(v, classes),
		"properties": termViews(v, props),
	})
}

// handleSuggest answers autocomplete queries for a data type.
func (s *Server) handleSuggest(c *gin.Context) {
	dataType := c.Param("datatype")
	q := strings.TrimSpace(c.Query("q"))

	res, err := s.opts.Suggesters.Suggest(c.Request.Context(), dataType, q)
	s.metrics.recordSuggest(dataType, err)
	if err != nil {
		handleError(c, err)
		return
	}
	if res == nil {
		res = []suggest.Suggestion{}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": res})
}

type citationRequest struct {
	Item             citation.Item `json:"item"`
	SiteID           int64         `json:"site_id"`
	Style            string        `json:"style"`
	Locale           string        `json:"locale"`
	AppendSite       bool          `json:"append_site"`
	AppendAccessDate bool          `json:"append_access_date"`
	Bibliographic    bool          `json:"bibliographic"`
	Tag              string        `json:"tag"`
	Class            string        `json:"class"`
	SiteTitle        string        `json:"site_title"`
	SiteURL          string        `json:"site_url"`
}

// handleCitation renders an item as an HTML citation. Style and locale
// default to the site settings, then the main settings.
func (s *Server) handleCitation(c *gin.Context) {
	var req citationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, newAPIError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	if req.Item.Title == "" && req.Item.ID == "" {
		handleError(c, newAPIError(http.StatusBadRequest, "Item needs an id or a title", nil))
		return
	}

	ctx := c.Request.Context()
	site := s.opts.SiteDefaults
	if s.opts.Settings != nil {
		var err error
		site, err = citation.ResolveSiteSettings(ctx, s.opts.Settings, req.SiteID, s.opts.SiteDefaults)
		if err != nil {
			handleError(c, err)
			return
		}
	}
	opts := citation.BlockSettings{
		Style:            req.Style,
		Locale:           req.Locale,
		AppendSite:       req.AppendSite,
		AppendAccessDate: req.AppendAccessDate,
		Bibliographic:    req.Bibliographic,
	}.Options(site)

	out, err := s.opts.Citation.Render(ctx, req.Item, citation.ViewOptions{
		Options:   opts,
		Tag:       req.Tag,
		Class:     req.Class,
		SiteTitle: req.SiteTitle,
		SiteURL:   req.SiteURL,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": out, "style": opts.Style, "locale": opts.Locale})
}

// handleForm returns the descriptors of a settings form as the admin UI
// would build it.
func (s *Server) handleForm(c *gin.Context) {
	params := map[string]any{}
	if raw := c.Query("site_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			handleError(c, newAPIError(http.StatusBadRequest, "Invalid site_id", err))
			return
		}
		params[plugin.ParamSiteID] = id
	}
	form, err := plugin.BuildForm(c.Request.Context(), s.opts.Events, c.Param("form"), params)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}
