package model

import "errors"

// 错误分类。适配器和仓储用 %w 包装这些哨兵错误，handler 层用 errors.Is 统一映射 HTTP 状态码。
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrRateLimited        = errors.New("rate limited")
	ErrUnavailable        = errors.New("service unavailable")

	// 内部适配器错误，对外只返回通用提示。
	ErrOCR        = errors.New("ocr failure")
	ErrStorage    = errors.New("storage failure")
	ErrCompletion = errors.New("completion failure")
	ErrRepository = errors.New("repository failure")
)
