package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
)

const (
	OffersSheet  = "Предложения"
	SummarySheet = "Сводка"

	// ContentType - MIME-тип файла xlsx.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var offerHeaders = []string{
	"Дата",
	"Культура",
	"Объём",
	"Цена объявления",
	"Предложенная цена",
	"Валюта",
	"Покупатель",
	"Телефон",
	"Сообщение",
	"Статус",
}

// OffersWorkbook собирает выгрузку полученных предложений в xlsx.
type OffersWorkbook struct {
	now func() time.Time
}

func NewOffersWorkbook() *OffersWorkbook {
	return &OffersWorkbook{now: time.Now}
}

// Render возвращает содержимое xlsx-файла с листами предложений и сводки.
func (w *OffersWorkbook) Render(offers []*entity.OfferDetails) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", OffersSheet); err != nil {
		return nil, err
	}
	if err := w.writeOffers(file, offers); err != nil {
		return nil, err
	}

	if _, err := file.NewSheet(SummarySheet); err != nil {
		return nil, err
	}
	if err := w.writeSummary(file, offers); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: не удалось сформировать файл: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *OffersWorkbook) writeOffers(file *excelize.File, offers []*entity.OfferDetails) error {
	for i, header := range offerHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(OffersSheet, cell, header); err != nil {
			return err
		}
	}

	headerStyle, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := file.SetRowStyle(OffersSheet, 1, 1, headerStyle); err != nil {
		return err
	}

	for i, o := range offers {
		row := i + 2
		values := []interface{}{
			o.CreatedAt.Format("2006-01-02 15:04"),
			o.Listing.CropName,
			fmt.Sprintf("%g %s", o.Listing.Quantity, o.Listing.Unit),
			o.Listing.Price.Amount,
			o.OfferPrice.Amount,
			o.OfferPrice.Currency,
			o.Buyer.Name,
			o.Buyer.Phone,
			o.Message,
			statusLabel(o.Status),
		}
		if err := file.SetSheetRow(OffersSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
	}

	_ = file.SetColWidth(OffersSheet, "A", "A", 18)
	_ = file.SetColWidth(OffersSheet, "B", "C", 16)
	_ = file.SetColWidth(OffersSheet, "D", "F", 14)
	_ = file.SetColWidth(OffersSheet, "G", "H", 20)
	_ = file.SetColWidth(OffersSheet, "I", "I", 40)
	_ = file.SetColWidth(OffersSheet, "J", "J", 12)
	return nil
}

func (w *OffersWorkbook) writeSummary(file *excelize.File, offers []*entity.OfferDetails) error {
	counts := map[valueobject.OfferStatus]int{}
	for _, o := range offers {
		counts[o.Status]++
	}

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(SummarySheet, cell, value)
	}

	set("A1", "Сформировано")
	set("B1", w.now().Format("2006-01-02 15:04"))
	set("A2", "Всего предложений")
	set("B2", len(offers))
	set("A3", statusLabel(valueobject.OfferStatusPending))
	set("B3", counts[valueobject.OfferStatusPending])
	set("A4", statusLabel(valueobject.OfferStatusAccepted))
	set("B4", counts[valueobject.OfferStatusAccepted])
	set("A5", statusLabel(valueobject.OfferStatusRejected))
	set("B5", counts[valueobject.OfferStatusRejected])

	_ = file.SetColWidth(SummarySheet, "A", "A", 24)
	_ = file.SetColWidth(SummarySheet, "B", "B", 18)
	return nil
}

func statusLabel(status valueobject.OfferStatus) string {
	switch status {
	case valueobject.OfferStatusPending:
		return "Ожидает"
	case valueobject.OfferStatusAccepted:
		return "Принято"
	case valueobject.OfferStatusRejected:
		return "Отклонено"
	default:
		return string(status)
	}
}
