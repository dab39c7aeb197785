package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"trade-ledger-backend/internal/model"
	"trade-ledger-backend/internal/store"
)

const exportSheet = "Purchases"

var exportHeadings = []interface{}{
	"ID", "Item", "Count", "Buy Price", "Total Cost", "Bought At", "Bought System", "Bought Time",
	"Status", "Delivered To", "Delivered Time", "Sold At", "Sold Time",
}

// purchaseFilter reads the status and item query parameters.
func purchaseFilter(c *gin.Context) (store.PurchaseFilter, bool) {
	disposition, ok := store.ParseDisposition(c.Query("status"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of open, sold, delivered"})
		return store.PurchaseFilter{}, false
	}
	return store.PurchaseFilter{Disposition: disposition, Item: c.Query("item")}, true
}

// ListPurchases returns purchases ordered by purchase time.
func (h *Handler) ListPurchases(c *gin.Context) {
	filter, ok := purchaseFilter(c)
	if !ok {
		return
	}

	purchases, err := h.store.ListPurchases(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to list purchases")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list purchases"})
		return
	}
	if purchases == nil {
		purchases = []model.Purchase{}
	}
	c.JSON(http.StatusOK, purchases)
}

// ExportPurchases writes the filtered purchase list as an xlsx workbook.
func (h *Handler) ExportPurchases(c *gin.Context) {
	filter, ok := purchaseFilter(c)
	if !ok {
		return
	}

	purchases, err := h.store.ListPurchases(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to list purchases for export")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list purchases"})
		return
	}

	f, err := purchaseWorkbook(purchases)
	if err != nil {
		log.Error().Err(err).Msg("failed to build purchase workbook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build export"})
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=purchases.xlsx")
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.Error().Err(err).Msg("failed to write purchase workbook")
	}
}

func purchaseWorkbook(purchases []model.Purchase) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeadings); err != nil {
		f.Close()
		return nil, err
	}
	for i, p := range purchases {
		row := []interface{}{
			p.ID, p.Item, p.Count, p.BuyPrice, p.TotalCost, p.BoughtAt, p.BoughtSystem, formatTime(&p.BoughtTime),
			string(purchaseStatus(p)), deref(p.DeliveredTo), formatTime(p.DeliveredTime), deref(p.SoldAt), formatTime(p.SoldTime),
		}
		if err := f.SetSheetRow(exportSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func purchaseStatus(p model.Purchase) store.Disposition {
	switch {
	case p.Sold:
		return store.DispositionSold
	case p.Delivered:
		return store.DispositionDelivered
	}
	return store.DispositionOpen
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
