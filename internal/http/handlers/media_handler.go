package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"

	"github.com/ignatzorin/spaces-backend/internal/http/handlers/common"
	"github.com/ignatzorin/spaces-backend/internal/logger"
	"github.com/ignatzorin/spaces-backend/internal/models"
	"github.com/ignatzorin/spaces-backend/internal/pkg/apperror"
	"github.com/ignatzorin/spaces-backend/internal/service"
)

// MediaHandler управляет карантинной загрузкой и чтением записей медиа.
type MediaHandler struct {
	uploads    *service.UploadService
	moderation *service.ModerationService
}

// NewMediaHandler создаёт новый хэндлер.
func NewMediaHandler(uploads *service.UploadService, moderation *service.ModerationService) *MediaHandler {
	return &MediaHandler{uploads: uploads, moderation: moderation}
}

// Upload обрабатывает POST /media: multipart файл + заявленный тип.
// Расширение исходного файла игнорируется — карантинный объект всегда
// получает каноническое расширение заявленного типа (jpg или mp4).
func (h *MediaHandler) Upload(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	declaredType := models.MediaType(c.PostForm("type"))
	if !declaredType.Valid() {
		common.RespondBadRequest(c, "поле type должно быть image или video")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "поле file обязательно")
		return
	}
	if file.Size == 0 {
		common.RespondBadRequest(c, "файл не может быть пустым")
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	// Проверяем магические байты: заявленный тип должен совпадать
	// с реальным семейством файла.
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}

	if err := matchDeclaredType(buffer[:n], declaredType); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	// Сбрасываем позицию файла для передачи с начала
	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "не удалось сбросить позицию файла"})
			return
		}
	}

	log := logger.WithComponent("upload")
	progress := func(fraction float64) {
		log.Debugf("загрузка %s: %.0f%%", userID, fraction*100)
	}

	result, err := h.uploads.Upload(c.Request.Context(), userID, declaredType, src, file.Size, progress)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetMedia обрабатывает GET /media/:id.
func (h *MediaHandler) GetMedia(c *gin.Context) {
	mediaID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	record, err := h.moderation.GetMedia(c.Request.Context(), mediaID)
	if err != nil {
		if apperror.IsNotFound(err) {
			// Отсутствующая запись — это null, а не внутренняя ошибка.
			c.JSON(http.StatusNotFound, gin.H{"media": nil})
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, mediaResponse(record))
}

// ListMyMedia обрабатывает GET /media — записи текущего пользователя, новые первыми.
func (h *MediaHandler) ListMyMedia(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit := common.GetLimit(c, 20, 100)
	records, err := h.moderation.ListOwnerMedia(c.Request.Context(), userID, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	out := make([]gin.H, 0, len(records))
	for i := range records {
		out = append(out, mediaResponse(&records[i]))
	}
	c.JSON(http.StatusOK, out)
}

// mediaResponse собирает запись во внешний контракт с блоками storage и moderation.
func mediaResponse(record *models.MediaRecord) gin.H {
	resp := gin.H{
		"id":        record.ID,
		"ownerUid":  record.OwnerID,
		"type":      record.Type,
		"status":    record.Status,
		"createdAt": record.CreatedAt,
		"storage":   record.Storage(),
	}
	if mod := record.Moderation(); mod != nil {
		resp["moderation"] = mod
	}
	return resp
}

// matchDeclaredType сверяет магические байты с заявленным типом медиа.
func matchDeclaredType(head []byte, declared models.MediaType) error {
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return errors.New("не удалось определить тип файла")
	}

	family := strings.SplitN(kind.MIME.Value, "/", 2)[0]
	switch declared {
	case models.MediaTypeImage:
		if family != "image" {
			return fmt.Errorf("заявлен image, но файл имеет тип %s", kind.MIME.Value)
		}
	case models.MediaTypeVideo:
		// Некоторые mp4-контейнеры определяются как audio/mp4.
		if family != "video" && kind != matchers.TypeMp4 {
			return fmt.Errorf("заявлен video, но файл имеет тип %s", kind.MIME.Value)
		}
	}
	return nil
}
