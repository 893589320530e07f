package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/athletetrack/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Sport       string `json:"sport"`
	Timezone    string `json:"timezone"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type profileRequest struct {
	DisplayName *string `json:"display_name"`
	Sport       *string `json:"sport"`
	Timezone    *string `json:"timezone"`
}

// AuthRequired 校验会话，未登录返回 401
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := sessionUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}
		c.Set(contextUserKey, userID)
		c.Next()
	}
}

// Register 注册并直接登录
func (a *API) Register(c *gin.Context) {
	var payload registerRequest
	if !bindJSON(c, &payload, "请填写用户名和密码") {
		return
	}

	user, err := a.auth.Register(c.Request.Context(), service.RegisterInput{
		Username:    payload.Username,
		Password:    payload.Password,
		DisplayName: payload.DisplayName,
		Sport:       payload.Sport,
		Timezone:    payload.Timezone,
	})
	if err != nil {
		a.handleServiceError(c, err, "注册失败")
		return
	}

	if !a.startSession(c, user.ID, user.Username) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": userPayload(user)})
}

// Login 处理用户登录请求
func (a *API) Login(c *gin.Context) {
	var payload loginRequest
	if !bindJSON(c, &payload, "请填写用户名和密码") {
		return
	}

	user, err := a.auth.Authenticate(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		a.handleServiceError(c, err, "登录失败")
		return
	}

	if !a.startSession(c, user.ID, user.Username) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
}

func (a *API) startSession(c *gin.Context, userID uint, username string) bool {
	session := sessions.Default(c)
	session.Set(sessionUserKey, userID)
	session.Set("username", username)
	if err := session.Save(); err != nil {
		a.log.Error("session save failed", "error", err, "user_id", userID)
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return false
	}
	return true
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		a.log.Warn("session clear failed", "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "已退出登录"})
}

// Me 返回当前用户资料
func (a *API) Me(c *gin.Context) {
	user, err := a.auth.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.handleServiceError(c, err, "获取用户信息失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
}

// UpdateMe 修改昵称、主项目与时区
func (a *API) UpdateMe(c *gin.Context) {
	var payload profileRequest
	if !bindJSON(c, &payload, "请求格式错误") {
		return
	}

	user, err := a.auth.UpdateProfile(c.Request.Context(), currentUserID(c), service.ProfileInput{
		DisplayName: payload.DisplayName,
		Sport:       payload.Sport,
		Timezone:    payload.Timezone,
	})
	if err != nil {
		a.handleServiceError(c, err, "更新资料失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
}

// UploadAvatar 上传头像，校验格式与尺寸后落盘
func (a *API) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("avatar")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的头像")
		return
	}
	if file.Size > a.maxUpload {
		respondError(c, http.StatusRequestEntityTooLarge, "文件过大")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "读取上传文件失败")
		return
	}
	ext, err := service.ValidateAvatar(src)
	src.Close()
	if err != nil {
		a.handleServiceError(c, err, "头像校验失败")
		return
	}

	dir := filepath.Join(a.uploadDir, "avatars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		a.log.Error("create avatar dir failed", "error", err, "dir", dir)
		respondError(c, http.StatusInternalServerError, "创建上传目录失败")
		return
	}

	name := fmt.Sprintf("%s-%s%s", time.Now().UTC().Format("20060102"), uuid.New().String(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
		a.log.Error("save avatar failed", "error", err)
		respondError(c, http.StatusInternalServerError, "保存文件失败")
		return
	}

	user, err := a.auth.SetAvatar(c.Request.Context(), currentUserID(c), a.uploadURL+"/avatars/"+name)
	if err != nil {
		a.handleServiceError(c, err, "更新头像失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
}
