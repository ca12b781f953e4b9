package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
)

func TestResolveFallsBackToZH(t *testing.T) {
	c := NewCatalog()

	assert.Equal(t, "Hotel Shuttle Reservation", c.Resolve(models.LangEN, KeyTitle))
	assert.Equal(t, "飯店接駁車預約", c.Resolve(models.LangZH, KeyTitle))

	// An unsupported language resolves through the zh fallback.
	assert.Equal(t, "飯店接駁車預約", c.Resolve(models.Language("fr"), KeyTitle))

	// A missing key comes back verbatim as the diagnostic signal.
	assert.Equal(t, "no.such.key", c.Resolve(models.LangEN, "no.such.key"))
}

func TestResolveIsStable(t *testing.T) {
	c := NewCatalog()
	for _, lang := range models.SupportedLanguages {
		first := c.Resolve(lang, KeyConfirmNotice)
		assert.Equal(t, first, c.Resolve(lang, KeyConfirmNotice))
		assert.NotEmpty(t, first)
	}
}

func TestAllLanguagesCoverMessageKeys(t *testing.T) {
	keys := []string{
		KeyTitle, KeyStepDirection, KeyStepDate, KeyStepStop, KeyStepSchedule,
		KeyStepDetails, KeyStepConfirm, KeyOutbound, KeyInbound, KeyHotel,
		KeyIdentityHotel, KeyIdentityDining, KeyNoSchedules, KeyExpired,
		KeyRequery, KeyBack, KeyConfirmNotice, KeyLookupHint, KeyLookupEmpty,
		KeyErrIdentity, KeyErrRoom, KeyErrName, KeyErrPhone, KeyErrEmail,
		KeyErrPassengers,
		"stop.mrt", "stop.nightmarket",
	}

	for _, lang := range models.SupportedLanguages {
		for _, key := range keys {
			assert.Contains(t, messages[lang], key, "%s missing %s", lang, key)
		}
	}
}

func TestStatusLabelsAreASeparateNamespace(t *testing.T) {
	c := NewCatalog()

	assert.Equal(t, "Booked", c.ResolveStatus(models.LangEN, models.StatusBooked))
	assert.Equal(t, "已預約", c.ResolveStatus(models.Language("fr"), models.StatusBooked))

	// A status code is not a message key and vice versa.
	assert.Equal(t, models.StatusBooked, c.Resolve(models.LangEN, models.StatusBooked))

	for _, lang := range models.SupportedLanguages {
		for _, status := range []string{
			models.StatusBooked, models.StatusCancelled, models.StatusRejected,
			models.StatusBoarded, models.StatusExpired,
		} {
			assert.Contains(t, statusLabels[lang], status, "%s missing status %s", lang, status)
		}
	}
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"one line"}, Lines("one line"))
	assert.Equal(t, []string{"a", "b"}, Lines("a\nb"))

	assert.False(t, Rich("plain"))
	assert.True(t, Rich("a\nb"))
}
