package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/larkvine/docrag/internal/config"
	"github.com/larkvine/docrag/internal/model"
	"github.com/larkvine/docrag/internal/pkg/errcode"
	"github.com/larkvine/docrag/internal/pkg/response"
	"github.com/larkvine/docrag/internal/service"
)

type IngestHandler struct {
	ingest *service.IngestService
	cfg    config.IngestConfig
}

func NewIngestHandler(ingest *service.IngestService, cfg config.IngestConfig) *IngestHandler {
	return &IngestHandler{ingest: ingest, cfg: cfg}
}

type ingestTextRequest struct {
	Content string            `json:"content"`
	Source  string            `json:"source"`
	Section string            `json:"section"`
	Tags    map[string]string `json:"tags"`
}

// Text ingests a raw text payload.
func (h *IngestHandler) Text(c *gin.Context) {
	var req ingestTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		response.Error(c, errcode.ErrInvalid, "content is required")
		return
	}
	res, err := h.ingest.IngestText(c.Request.Context(), &service.IngestRequest{
		Filename: req.Source,
		FileType: model.FileTypeTxt,
		Section:  req.Section,
		Tags:     req.Tags,
	}, req.Content)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

// File ingests a multipart upload. The declared extension picks the
// extraction path.
func (h *IngestHandler) File(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if h.cfg.MaxFileBytes > 0 && file.Size > h.cfg.MaxFileBytes {
		response.Error(c, errcode.ErrFileTooLarge, "file exceeds "+formatUploadLimit(h.cfg.MaxFileBytes))
		return
	}
	fileType, ok := fileTypeFromName(file.Filename)
	if !ok {
		response.Error(c, errcode.ErrUnsupportedFormat, "unsupported file format")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()

	res, err := h.ingest.IngestFile(c.Request.Context(), &service.IngestRequest{
		Filename: file.Filename,
		FileType: fileType,
		Section:  c.PostForm("section"),
	}, opened, file.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

func fileTypeFromName(name string) (model.FileType, bool) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return "", false
	}
	return model.ParseFileType(strings.ToLower(name[idx+1:]))
}

func formatUploadLimit(bytes int64) string {
	const mb = 1024 * 1024
	if bytes <= 0 {
		return "0MB"
	}
	value := bytes / mb
	if value <= 0 {
		value = 1
	}
	return strconv.FormatInt(value, 10) + "MB"
}
