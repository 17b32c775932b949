package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeader = []string{"ID", "SKU", "Name", "Description", "Price", "Stock", "Image", "CreatedAt"}

// exportProducts streams the catalog as a single-sheet workbook.
func (h *Handler) exportProducts(c *gin.Context) {
	products, err := h.catalog.Products(c.Request.Context(), "")
	if err != nil {
		fail(c, err)
		return
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		fail(c, errors.Wrap(err, "add sheet"))
		return
	}
	header := sheet.AddRow()
	for _, name := range exportHeader {
		header.AddCell().SetString(name)
	}
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetInt64(p.ID)
		row.AddCell().SetString(p.SKU)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Description)
		row.AddCell().SetFloat(money(p.Price))
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetString(h.imageURL(p.ImageURL))
		row.AddCell().SetString(p.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	}

	c.Header("Content-Disposition", `attachment; filename="products.xlsx"`)
	c.Header("Content-Type", xlsxContentType)
	c.Header("X-Export-Rows", strconv.Itoa(len(products)))
	if err := file.Write(c.Writer); err != nil {
		zctx.From(c.Request.Context()).Error("Write export", zap.Error(err))
	}
}
