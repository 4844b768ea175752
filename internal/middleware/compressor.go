package middleware

import (
	"fmt"
	"io"
	"net/http"

	"github.com/drstein77/istore/internal/compress"
	"go.uber.org/zap"
)

const (
	ArchiveZip = "zip"
	ArchiveTar = "tar"
)

// ArchiveTypeMiddleware packages the response body as fileName inside a zip
// or tar archive, picked by the archiveType query parameter (zip by default).
func ArchiveTypeMiddleware(fileName string, log Log) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			archiveType := r.URL.Query().Get("archiveType")
			if archiveType != ArchiveTar && archiveType != ArchiveZip {
				archiveType = ArchiveZip // Default value
			}

			CreateCompressMiddleware(archiveType, fileName, log)(next).ServeHTTP(w, r)
		})
	}
}

func CreateCompressMiddleware(archiveType, fileName string, log Log) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				cw          io.WriteCloser
				contentType string
			)
			switch archiveType {
			case ArchiveTar:
				cw = compress.NewTarWriter(w, fileName)
				contentType = "application/x-tar"
			case ArchiveZip:
				zw, err := compress.NewZipWriter(w, fileName)
				if err != nil {
					http.Error(w, "failed to create archive", http.StatusInternalServerError)
					return
				}
				cw = zw
				contentType = "application/zip"
			default:
				h.ServeHTTP(w, r)
				return
			}
			// the archive trailer is written on close, after the status went out
			defer func() {
				if err := cw.Close(); err != nil {
					log.Error("cannot finish archive",
						zap.String("archive_type", archiveType),
						zap.String("file_name", fileName),
						zap.Error(err),
					)
				}
			}()

			w.Header().Set("Content-Type", contentType)
			w.Header().Set("Content-Disposition",
				fmt.Sprintf(`attachment; filename="%s.%s"`, fileName, archiveType))

			h.ServeHTTP(&archiveWriter{ResponseWriter: w, archive: cw}, r)
		})
	}
}

// archiveWriter sends the body into the archive.
type archiveWriter struct {
	http.ResponseWriter
	archive io.Writer
}

func (a *archiveWriter) Write(p []byte) (int, error) {
	return a.archive.Write(p)
}
