package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// WantsJSON reports whether the client asked for the JSON envelope instead of a page.
func WantsJSON(ctx *gin.Context) bool {
	if ctx.Query("format") == "json" {
		return true
	}
	return strings.Contains(ctx.GetHeader("Accept"), "application/json")
}

// Render writes page data through the named template, or as the JSON envelope for API clients.
func Render(ctx *gin.Context, status int, template string, data gin.H) {
	if WantsJSON(ctx) {
		Respond(ctx, status, 0, "success", data)
		return
	}
	ctx.HTML(status, template, data)
}

// Error answers with a localized message: JSON envelope for API clients, the error page otherwise.
func Error(ctx *gin.Context, status int, code int, message string) {
	if WantsJSON(ctx) {
		Respond(ctx, status, code, message, nil)
		return
	}
	ctx.HTML(status, "error.html", gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
}

// Redirect finishes a form post. API clients get the target and data instead of a 302.
func Redirect(ctx *gin.Context, location string, data gin.H) {
	if WantsJSON(ctx) {
		if data == nil {
			data = gin.H{}
		}
		data["redirect"] = location
		Success(ctx, data)
		return
	}
	ctx.Redirect(http.StatusFound, location)
}
