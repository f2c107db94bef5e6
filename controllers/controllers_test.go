package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/docportal/config"
	"github.com/cppla/docportal/storage"
	"github.com/cppla/docportal/utils"
)

// setupMockDB returns a gorm handle whose queries are answered by sqlmock.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: conn, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	utils.SetRedis(nil)
	return db, mock
}

func serveJSON(t *testing.T, handler gin.HandlerFunc, target string) (*httptest.ResponseRecorder, utils.JSONResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/probe", handler)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHomeCountFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM posts AS p").
		WillReturnError(errors.New("connection reset"))

	posts := NewPostController(db, nil, config.AppSection{PostsPerPage: 5})
	w, body := serveJSON(t, posts.Home, "/probe?category=3")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 50020, body.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchCountFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT count\\(DISTINCT").
		WillReturnError(errors.New("connection reset"))

	posts := NewPostController(db, nil, config.AppSection{PostsPerPage: 5})
	w, body := serveJSON(t, posts.Search, "/probe?q=bieu")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 50023, body.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementShow(t *testing.T) {
	t.Run("stored text", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery("SELECT \\* FROM `settings`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "key", "value"}).AddRow(1, "announcement", "Họp giao ban 8h"))

		w, body := serveJSON(t, NewAnnouncementController(db).Show, "/probe")

		assert.Equal(t, http.StatusOK, w.Code)
		data, ok := body.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "Họp giao ban 8h", data["Announcement"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is empty", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery("SELECT \\* FROM `settings`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "key", "value"}))

		w, body := serveJSON(t, NewAnnouncementController(db).Show, "/probe")

		assert.Equal(t, http.StatusOK, w.Code)
		data := body.Data.(map[string]interface{})
		assert.Equal(t, "", data["Announcement"])
	})

	t.Run("query failure", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery("SELECT \\* FROM `settings`").
			WillReturnError(errors.New("timeout"))

		w, body := serveJSON(t, NewAnnouncementController(db).Show, "/probe")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, 50060, body.Code)
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{errors.Wrap(ErrForbidden, "post 3"), http.StatusForbidden},
		{ErrConflict, http.StatusConflict},
		{errors.Wrap(storage.ErrInvalidName, "purge"), http.StatusBadRequest},
		{storage.ErrNotFound, http.StatusNotFound},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
