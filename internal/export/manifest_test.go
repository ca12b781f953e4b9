package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/i18n"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
)

func manifestRecord(tod, name, status string, seats int) *models.BookingRecord {
	return &models.BookingRecord{
		ID: name,
		DraftBooking: models.DraftBooking{
			Direction:      models.DirectionOutbound,
			Slot:           &models.ScheduleSlot{Time: tod},
			Name:           name,
			Phone:          "0912345678",
			PickupKey:      i18n.KeyHotel,
			DropoffKey:     "stop.mrt",
			PassengerCount: seats,
		},
		Status: status,
	}
}

func TestWriteDaily(t *testing.T) {
	stops := []models.Stop{{ID: 1, NameKey: "stop.mrt"}}
	writer := NewWriter(t.TempDir(), i18n.NewCatalog(), stops)

	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	records := []*models.BookingRecord{
		manifestRecord("09:05", "Chen", models.StatusBooked, 2),
		manifestRecord("11:05", "Lin", models.StatusCancelled, 1),
		manifestRecord("21:05", "Wang", models.StatusBoarded, 4),
	}

	path, err := writer.WriteDaily(date, records)
	require.NoError(t, err)
	assert.Contains(t, path, "manifest_2026-09-15.xlsx")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Manifest")
	require.NoError(t, err)

	// Title, header, and the two seat-holding records; the cancelled one
	// holds no seat and is absent.
	require.Len(t, rows, 4)
	assert.Contains(t, rows[0][0], "2026-09-15")
	assert.Equal(t, "Time", rows[1][0])
	assert.Equal(t, "09:05", rows[2][0])
	assert.Equal(t, "Chen", rows[2][4])
	assert.Equal(t, "2", rows[2][6])
	assert.Equal(t, "21:05", rows[3][0])
	assert.Equal(t, "已搭乘", rows[3][7])

	// Localized endpoint names, not raw keys.
	assert.Equal(t, "飯店", rows[2][2])
	assert.Equal(t, "捷運站", rows[2][3])
}

func TestWriteDailyEmpty(t *testing.T) {
	writer := NewWriter(t.TempDir(), i18n.NewCatalog(), nil)

	path, err := writer.WriteDaily(time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Manifest")
	require.NoError(t, err)
	require.Len(t, rows, 2, "title and header only")
}
