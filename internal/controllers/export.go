package controllers

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/drstein77/istore/internal/catalog"
	"go.uber.org/zap"
)

var exportHeader = []string{"id", "name", "category", "price", "image", "description"}

// exportCatalog writes the catalog as CSV. The archive middleware wraps the
// output into a zip or tar file.
func (h *BaseController) exportCatalog(w http.ResponseWriter, _ *http.Request) {
	cw := csv.NewWriter(w)

	if err := cw.Write(exportHeader); err != nil {
		h.log.Error("catalog export failed", zap.Error(err))
		return
	}
	for _, p := range catalog.Products() {
		record := []string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			p.Category,
			p.Price,
			p.Image,
			p.Description,
		}
		if err := cw.Write(record); err != nil {
			h.log.Error("catalog export failed", zap.Error(err))
			return
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		h.log.Error("catalog export failed", zap.Error(err))
	}
}
