package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"doc-insight-go/internal/pipeline"
	"doc-insight-go/internal/service"
	"doc-insight-go/pkg/log"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// multipart 头部与边界的额外余量
const multipartOverhead = 1 << 20

var allowedDeclaredType = regexp.MustCompile(`(?i)/(jpg|jpeg|png)$`)

// UploadHandler 负责接收上传文件并交给处理流水线。
type UploadHandler struct {
	docService   service.DocumentService
	maxSizeBytes int64
	tempDir      string
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(docService service.DocumentService, maxSizeBytes int64, tempDir string) *UploadHandler {
	return &UploadHandler{
		docService:   docService,
		maxSizeBytes: maxSizeBytes,
		tempDir:      tempDir,
	}
}

// Upload 校验上传的图片，写入临时文件后执行 OCR → 存储 → 入库 → 解释。
// 所有校验都在流水线开始之前完成；临时文件在任何情况下都会被删除。
func (h *UploadHandler) Upload(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSizeBytes+multipartOverhead)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusBadRequest, fmt.Sprintf("File too large, limit is %d bytes", h.maxSizeBytes))
			return
		}
		fail(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	if fileHeader.Size > h.maxSizeBytes {
		fail(c, http.StatusBadRequest, fmt.Sprintf("File too large, limit is %d bytes", h.maxSizeBytes))
		return
	}
	if !allowedDeclaredType.MatchString(fileHeader.Header.Get("Content-Type")) {
		fail(c, http.StatusBadRequest, "Only image files (jpg, jpeg, png) are allowed")
		return
	}

	tmpPath, err := h.saveTemp(fileHeader)
	if err != nil {
		log.Error("Upload: 写入临时文件失败", err)
		fail(c, http.StatusInternalServerError, "Error processing document")
		return
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warnw("Upload: 删除临时文件失败", "path", tmpPath, "error", err)
		}
	}()

	detected, err := mimetype.DetectFile(tmpPath)
	if err != nil || !(detected.Is("image/png") || detected.Is("image/jpeg")) {
		fail(c, http.StatusBadRequest, "Only image files (jpg, jpeg, png) are allowed")
		return
	}

	result, err := h.docService.Upload(c.Request.Context(), pipeline.Input{
		Owner:    p,
		FilePath: tmpPath,
		FileName: filepath.Base(fileHeader.Filename),
		MimeType: detected.String(),
	})
	if err != nil {
		writeError(c, err, "Error processing document")
		return
	}
	respond(c, http.StatusCreated, "File processed successfully", gin.H{"document": result})
}

func (h *UploadHandler) saveTemp(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	dst, err := os.CreateTemp(h.tempDir, "upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}
