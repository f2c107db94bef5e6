package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/cppla/docportal/middleware"
	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/utils"
)

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

func isAdmin(ctx *gin.Context) bool {
	claims, ok := middleware.CurrentSession(ctx)
	return ok && claims.Role == models.RoleAdmin
}

// page adds the fields every template needs to data.
func page(ctx *gin.Context, title string, data map[string]interface{}) gin.H {
	h := gin.H{"Title": title}
	if claims, ok := middleware.CurrentSession(ctx); ok {
		h["CurrentUser"] = claims
		h["IsAdmin"] = claims.Role == models.RoleAdmin
	}
	for k, v := range data {
		h[k] = v
	}
	return h
}

func parseID(ctx *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// bindForm binds a form and reports the first failing field name, if any.
// Malformed values (e.g. a non-numeric id) are reported like missing ones.
func bindForm(ctx *gin.Context, out interface{}) (string, bool) {
	err := ctx.ShouldBind(out)
	if err == nil {
		return "", true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field(), false
	}
	utils.Sugar.Debugf("form binding failed: %v", err)
	return "", false
}

func formValues(ctx *gin.Context, keys ...string) []string {
	var out []string
	if form, err := ctx.MultipartForm(); err == nil && form != nil {
		for _, k := range keys {
			out = append(out, form.Value[k]...)
		}
		return out
	}
	for _, k := range keys {
		out = append(out, ctx.PostFormArray(k)...)
	}
	return out
}
