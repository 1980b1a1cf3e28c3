package middleware

import (
	"bytes"
	"net/http"
	"strconv"

	"helpcrunch-live-chat/internal/logger"
	"helpcrunch-live-chat/utils"

	"github.com/gin-gonic/gin"
)

type bufferedWriter struct {
	gin.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}

func (w *bufferedWriter) WriteHeader(code int) {
	w.status = code
}

func (w *bufferedWriter) WriteHeaderNow() {}

func (w *bufferedWriter) Status() int {
	return w.status
}

func (w *bufferedWriter) Size() int {
	return w.buf.Len()
}

func (w *bufferedWriter) Written() bool {
	return w.buf.Len() > 0
}

// Compression buffers the response and encodes it with brotli or gzip,
// whichever the client prefers. Small bodies are sent as-is.
func Compression() gin.HandlerFunc {
	return func(c *gin.Context) {
		alg := utils.NegotiateCompression(c.GetHeader("Accept-Encoding"))
		if alg == utils.CompressionNone {
			c.Next()
			return
		}

		original := c.Writer
		bw := &bufferedWriter{ResponseWriter: original, status: http.StatusOK}
		c.Writer = bw
		c.Next()
		c.Writer = original

		header := original.Header()
		header.Add("Vary", "Accept-Encoding")

		body := bw.buf.Bytes()
		if len(body) >= utils.MinCompressSize && header.Get("Content-Encoding") == "" {
			compressed, err := utils.CompressData(body, alg)
			if err == nil {
				header.Set("Content-Encoding", string(alg))
				body = compressed
			} else {
				logger.Warn("response compression failed", "algorithm", string(alg), "error", err)
			}
		}

		if len(body) > 0 {
			header.Set("Content-Length", strconv.Itoa(len(body)))
		}
		original.WriteHeader(bw.status)
		if len(body) > 0 {
			_, _ = original.Write(body)
		} else {
			original.WriteHeaderNow()
		}
	}
}
