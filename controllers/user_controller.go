package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/utils"
)

// UserController implements account administration.
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a new UserController instance.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

// UserView is the account listing row; it never carries the password hash.
type UserView struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Avatar    string    `json:"avatar"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CanPost   bool      `json:"can_post"`
	CreatedAt time.Time `json:"created_at"`
}

// ListUsers renders every account, newest first.
func (u *UserController) ListUsers(ctx *gin.Context) {
	var users []models.User
	if err := u.db.Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		utils.Sugar.Errorw("list users failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50050, "Lỗi khi tải danh sách người dùng!")
		return
	}
	views := make([]UserView, len(users))
	for i := range users {
		if err := copier.Copy(&views[i], &users[i]); err != nil {
			utils.Sugar.Errorw("copy user view failed", "user_id", users[i].ID, "error", err)
		}
	}
	utils.Render(ctx, http.StatusOK, "admin_users.html", page(ctx, "Quản lý người dùng", gin.H{
		"Users": views,
	}))
}

type addUserRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	FullName string `form:"full_name" binding:"required"`
	Role     string `form:"role"`
	CanPost  string `form:"can_post"`
}

// AddUser creates an account with a bcrypt-hashed password.
func (u *UserController) AddUser(ctx *gin.Context) {
	var req addUserRequest
	_, ok := bindForm(ctx, &req)
	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)
	if !ok || req.Username == "" || req.FullName == "" {
		utils.Error(ctx, http.StatusBadRequest, 40050, "Vui lòng điền đầy đủ thông tin!")
		return
	}
	role := models.RoleUser
	if req.Role == models.RoleAdmin {
		role = models.RoleAdmin
	}

	var existing int64
	if err := u.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&existing).Error; err != nil {
		utils.Sugar.Errorw("check username failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50051, "Lỗi khi tạo user!")
		return
	}
	if existing > 0 {
		utils.Error(ctx, http.StatusBadRequest, 40051, "Tên đăng nhập đã tồn tại!")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Sugar.Errorw("hash password failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50051, "Lỗi khi tạo user!")
		return
	}
	user := models.User{
		Username:     req.Username,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         role,
		Status:       models.StatusActive,
		CanPost:      req.CanPost != "" && req.CanPost != "0" && req.CanPost != "false",
	}
	if err := u.db.Create(&user).Error; err != nil {
		utils.Sugar.Errorw("create user failed", "username", req.Username, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50051, "Lỗi khi tạo user!")
		return
	}
	utils.Sugar.Infow("user created", "user_id", user.ID, "username", user.Username, "role", user.Role)
	utils.Redirect(ctx, "/admin/users", gin.H{"user_id": user.ID})
}

// ToggleStatus flips an account between active and inactive.
func (u *UserController) ToggleStatus(ctx *gin.Context) {
	u.toggle(ctx, func(user *models.User) (string, interface{}, error) {
		if self, _ := getUserID(ctx); self == user.ID && user.IsActive() {
			return "", nil, errSelfDeactivate
		}
		next := models.StatusActive
		if user.IsActive() {
			next = models.StatusInactive
		}
		return "status", next, nil
	}, "Lỗi khi cập nhật trạng thái!")
}

// ToggleCanPost flips an account's upload permission. It applies to existing
// sessions on their next request.
func (u *UserController) ToggleCanPost(ctx *gin.Context) {
	u.toggle(ctx, func(user *models.User) (string, interface{}, error) {
		return "can_post", !user.CanPost, nil
	}, "Lỗi khi cập nhật quyền đăng bài!")
}

var errSelfDeactivate = errors.New("cannot deactivate own account")

func (u *UserController) toggle(ctx *gin.Context, next func(*models.User) (string, interface{}, error), failure string) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40450, "Người dùng không tồn tại!")
		return
	}
	err := u.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		column, value, err := next(&user)
		if err != nil {
			return err
		}
		return tx.Model(&user).Update(column, value).Error
	})
	switch {
	case err == nil:
		utils.Redirect(ctx, "/admin/users", gin.H{"user_id": id})
	case errors.Is(err, ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40450, "Người dùng không tồn tại!")
	case errors.Is(err, errSelfDeactivate):
		utils.Error(ctx, http.StatusBadRequest, 40052, "Không thể vô hiệu hóa tài khoản của chính bạn!")
	default:
		utils.Sugar.Errorw("toggle user failed", "user_id", id, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50052, failure)
	}
}
