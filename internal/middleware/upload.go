package middleware

import (
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"ai-scribe-server/internal/utils"
)

// MaxAudioFileSize is the upload cap for audio files.
const MaxAudioFileSize = 10 << 20 // 10MB

const audioFileKey = "audioFile"

var allowedAudioMIMETypes = map[string]bool{
	"audio/mpeg": true,
	"audio/mp3":  true,
	"audio/wav":  true,
	"audio/m4a":  true,
	"audio/aac":  true,
	"audio/ogg":  true,
	"audio/webm": true,
}

var allowedAudioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".aac":  true,
	".ogg":  true,
	".webm": true,
}

// AudioUpload extracts and validates an optional audio file from the
// multipart form field of the given name. A missing file passes through;
// an invalid one aborts the request.
func AudioUpload(field string) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile(field)
		if err != nil {
			// No file attached; downstream handlers decide whether that is acceptable.
			c.Next()
			return
		}

		if file.Size > MaxAudioFileSize {
			utils.BadRequest(c, "File too large. Maximum size is 10MB.")
			c.Abort()
			return
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		mimeType := file.Header.Get("Content-Type")
		if !allowedAudioExtensions[ext] && !allowedAudioMIMETypes[mimeType] {
			utils.BadRequest(c, "Only audio files are allowed (mp3, wav, m4a, aac, ogg, webm)")
			c.Abort()
			return
		}

		c.Set(audioFileKey, file)
		c.Next()
	}
}

// GetAudioFileFromContext retrieves the validated upload, if any.
func GetAudioFileFromContext(c *gin.Context) (*multipart.FileHeader, bool) {
	v, exists := c.Get(audioFileKey)
	if !exists {
		return nil, false
	}
	file, ok := v.(*multipart.FileHeader)
	return file, ok
}
