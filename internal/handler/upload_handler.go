package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/athletetrack/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadVideo 处理训练视频上传请求
func (a *API) UploadVideo(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.maxUpload+1<<20)

	// 获取上传的文件
	file, err := c.FormFile("video")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的视频")
		return
	}
	if file.Size > a.maxUpload {
		respondError(c, http.StatusRequestEntityTooLarge, "文件过大")
		return
	}

	// 检查文件类型
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		respondError(c, http.StatusBadRequest, "只允许上传视频文件")
		return
	}

	dir := filepath.Join(a.uploadDir, "videos")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		a.log.Error("create video dir failed", "error", err, "dir", dir)
		respondError(c, http.StatusInternalServerError, "创建上传目录失败")
		return
	}

	// 生成唯一文件名
	ext := strings.ToLower(filepath.Ext(file.Filename))
	newFilename := fmt.Sprintf("%s-%s%s", time.Now().UTC().Format("20060102"), uuid.New().String(), ext)
	filePath := filepath.Join(dir, newFilename)

	if err := c.SaveUploadedFile(file, filePath); err != nil {
		a.log.Error("save video failed", "error", err)
		respondError(c, http.StatusInternalServerError, "保存文件失败")
		return
	}

	result, err := a.activities.RecordVideoUpload(c.Request.Context(), currentUserID(c), service.VideoUploadInput{
		OriginalName: filepath.Base(file.Filename),
		StoredName:   newFilename,
		URL:          a.uploadURL + "/videos/" + newFilename,
		ContentType:  contentType,
		SizeBytes:    file.Size,
	})
	if err != nil {
		_ = os.Remove(filePath)
		a.handleServiceError(c, err, "记录视频失败")
		return
	}

	response := outcomePayload(result.Outcome)
	response["video"] = videoPayload(result.Video)
	c.JSON(http.StatusCreated, response)
}

// ListVideos 返回最近上传的视频
func (a *API) ListVideos(c *gin.Context) {
	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	videos, err := a.activities.ListVideos(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		a.handleServiceError(c, err, "获取视频列表失败")
		return
	}

	items := make([]gin.H, 0, len(videos))
	for _, video := range videos {
		items = append(items, videoPayload(video))
	}
	c.JSON(http.StatusOK, gin.H{"videos": items})
}
