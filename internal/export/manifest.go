package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/i18n"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
)

// Writer produces the daily passenger manifest as an xlsx file for the
// front desk and drivers. Text comes from the catalog in the default
// language.
type Writer struct {
	path    string
	catalog *i18n.Catalog
	stops   map[int64]models.Stop
}

func NewWriter(path string, catalog *i18n.Catalog, stops []models.Stop) *Writer {
	byID := make(map[int64]models.Stop, len(stops))
	for _, stop := range stops {
		byID[stop.ID] = stop
	}
	return &Writer{path: path, catalog: catalog, stops: byID}
}

// WriteDaily writes the manifest for one service date and returns the file
// path. Only seat-holding records (booked, boarded) appear.
func (w *Writer) WriteDaily(date time.Time, records []*models.BookingRecord) (string, error) {
	if err := os.MkdirAll(w.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Manifest"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s %s",
		w.catalog.Resolve(models.DefaultLanguage, i18n.KeyTitle),
		date.Format(models.DateLayout)))

	headers := []string{"Time", "Direction", "Pickup", "Dropoff", "Name", "Phone", "Seats", "Status"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	row := 3
	for _, record := range records {
		if record.Status != models.StatusBooked && record.Status != models.StatusBoarded {
			continue
		}
		cells := []interface{}{
			record.Slot.Time,
			w.catalog.Resolve(models.DefaultLanguage, directionKey(record.Direction)),
			w.catalog.Resolve(models.DefaultLanguage, record.PickupKey),
			w.catalog.Resolve(models.DefaultLanguage, record.DropoffKey),
			record.Name,
			record.Phone,
			record.PassengerCount,
			w.catalog.ResolveStatus(models.DefaultLanguage, record.Status),
		}
		for i, value := range cells {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheetName, cell, value)
		}
		row++
	}

	_ = f.SetColWidth(sheetName, "A", "H", 18)

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.MergeCell(sheetName, "A1", "H1")
	_ = f.SetCellStyle(sheetName, "A1", "A1", style)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("manifest_%s.xlsx", date.Format(models.DateLayout))
	fullPath := filepath.Join(w.path, fileName)
	if err := f.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("error saving manifest: %w", err)
	}
	return fullPath, nil
}

func directionKey(d models.Direction) string {
	if d == models.DirectionInbound {
		return i18n.KeyInbound
	}
	return i18n.KeyOutbound
}
