package controllers

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/utils"
)

// SearchResult is a post summary with highlighted title and content excerpts.
type SearchResult struct {
	models.PostSummary
	TitleHighlight   string `json:"title_highlight"`
	ContentHighlight string `json:"content_highlight"`
}

// Home lists the newest posts, optionally within one category, with the side panels.
func (p *PostController) Home(ctx *gin.Context) {
	pageNo := utils.ParsePage(ctx.Query("page"))
	var categoryID uint
	if v, err := strconv.ParseUint(ctx.Query("category"), 10, 64); err == nil {
		categoryID = uint(v)
	}

	count := p.db.Table("posts AS p")
	if categoryID > 0 {
		count = count.Where("p.category_id = ?", categoryID)
	}
	var total int64
	if err := count.Count(&total).Error; err != nil {
		utils.Sugar.Errorw("count posts failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "Lỗi khi tải danh sách bài đăng!")
		return
	}
	pg := utils.NewPagination(pageNo, p.cfg.PostsPerPage, total)

	list := postSummaries(p.db)
	if categoryID > 0 {
		list = list.Where("p.category_id = ?", categoryID)
	}
	var posts []models.PostSummary
	if err := list.Order("p.created_at DESC, p.id DESC").Limit(pg.PerPage).Offset(pg.Offset()).Scan(&posts).Error; err != nil {
		utils.Sugar.Errorw("list posts failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50021, "Lỗi khi tải danh sách bài đăng!")
		return
	}

	panels, err := p.sidePanels()
	if err != nil {
		utils.Sugar.Errorw("load home panels failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50022, "Lỗi khi tải trang chủ!")
		return
	}
	data := gin.H{
		"Posts":            posts,
		"Pagination":       pg,
		"SelectedCategory": categoryID,
		"PageQuery":        categoryQuery(categoryID),
	}
	for k, v := range panels {
		data[k] = v
	}
	utils.Render(ctx, http.StatusOK, "home.html", page(ctx, "Trang chủ", data))
}

// sidePanels loads the blocks shown beside every listing.
func (p *PostController) sidePanels() (gin.H, error) {
	categories, err := categoriesWithCounts(p.db)
	if err != nil {
		return nil, err
	}
	banners, err := activeBanners(p.db, time.Now())
	if err != nil {
		return nil, err
	}
	rates, err := activeRates(p.db)
	if err != nil {
		return nil, err
	}
	text, err := announcement(p.db)
	if err != nil {
		return nil, err
	}
	return gin.H{
		"Categories":   categories,
		"Banners":      banners,
		"Rates":        rates,
		"Announcement": text,
	}, nil
}

// Search matches the query against titles, content and attachment names.
func (p *PostController) Search(ctx *gin.Context) {
	q := strings.TrimSpace(ctx.Query("q"))
	if q == "" {
		ctx.Redirect(http.StatusFound, "/")
		return
	}
	like := "%" + q + "%"
	matching := func() *gorm.DB {
		return p.db.Table("posts AS p").
			Joins("LEFT JOIN post_files pf ON pf.post_id = p.id").
			Where("LOWER(p.title) LIKE LOWER(?) OR LOWER(p.content) LIKE LOWER(?) OR LOWER(pf.file_name) LIKE LOWER(?)", like, like, like)
	}

	var total int64
	if err := matching().Distinct("p.id").Count(&total).Error; err != nil {
		utils.Sugar.Errorw("count search results failed", "q", q, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50023, "Lỗi khi tìm kiếm!")
		return
	}
	pg := utils.NewPagination(utils.ParsePage(ctx.Query("page")), p.cfg.PostsPerPage, total)

	var hits []struct {
		ID        uint
		CreatedAt time.Time
	}
	if err := matching().Distinct("p.id", "p.created_at").
		Order("p.created_at DESC, p.id DESC").
		Limit(pg.PerPage).Offset(pg.Offset()).
		Scan(&hits).Error; err != nil {
		utils.Sugar.Errorw("search posts failed", "q", q, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50024, "Lỗi khi tìm kiếm!")
		return
	}

	results := make([]SearchResult, 0, len(hits))
	if len(hits) > 0 {
		ids := make([]uint, len(hits))
		for i, h := range hits {
			ids[i] = h.ID
		}
		var posts []models.PostSummary
		if err := postSummaries(p.db).Where("p.id IN ?", ids).
			Order("p.created_at DESC, p.id DESC").
			Scan(&posts).Error; err != nil {
			utils.Sugar.Errorw("load search results failed", "q", q, "error", err)
			utils.Error(ctx, http.StatusInternalServerError, 50025, "Lỗi khi tìm kiếm!")
			return
		}
		for _, post := range posts {
			results = append(results, SearchResult{
				PostSummary:      post,
				TitleHighlight:   utils.HighlightSearchTerms(post.Title, q, p.cfg.TitleSnippet),
				ContentHighlight: utils.HighlightSearchTerms(post.Content, q, p.cfg.ContentSnippet),
			})
		}
	}

	panels, err := p.sidePanels()
	if err != nil {
		utils.Sugar.Errorw("load search panels failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50026, "Lỗi khi tìm kiếm!")
		return
	}
	data := gin.H{
		"Query":      q,
		"Results":    results,
		"Pagination": pg,
		"PageQuery":  template.URL("q=" + url.QueryEscape(q) + "&"),
	}
	for k, v := range panels {
		data[k] = v
	}
	utils.Render(ctx, http.StatusOK, "search.html", page(ctx, "Kết quả tìm kiếm: "+q, data))
}

func categoryQuery(id uint) template.URL {
	if id == 0 {
		return ""
	}
	return template.URL("category=" + strconv.FormatUint(uint64(id), 10) + "&")
}
