package service

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/webp"
)

const maxAvatarDimension = 4096

var avatarExtensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
	"webp": ".webp",
}

// ValidateAvatar 读取图片头部，校验格式与尺寸，返回建议的文件扩展名
func ValidateAvatar(r io.Reader) (string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return "", fmt.Errorf("%w: avatar must be a png, jpeg, gif or webp image", ErrInvalidInput)
	}
	ext, ok := avatarExtensions[format]
	if !ok {
		return "", fmt.Errorf("%w: unsupported image format %q", ErrInvalidInput, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxAvatarDimension || cfg.Height > maxAvatarDimension {
		return "", fmt.Errorf("%w: avatar must be at most %dx%d", ErrInvalidInput, maxAvatarDimension, maxAvatarDimension)
	}
	return ext, nil
}
