package service

import "errors"

var (
	// ErrInvalidInput 表示请求参数缺失或不合法，handler 映射为 400
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserNotFound 在用户不存在时返回
	ErrUserNotFound = errors.New("user not found")
)
