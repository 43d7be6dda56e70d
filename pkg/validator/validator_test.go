package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateClock(t *testing.T) {
	valid := []string{"00:00", "09:30", "12:05", "23:59"}
	for _, s := range valid {
		assert.True(t, ValidateClock(s), s)
	}

	invalid := []string{"", "9:30", "24:00", "12:60", "12-30", "0930", "12:30:00"}
	for _, s := range invalid {
		assert.False(t, ValidateClock(s), s)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, time.Monday, d.Weekday())

	for _, s := range []string{"", "31-08-2026", "2026-13-01", "2026-08-32", "завтра"} {
		_, err := ParseDate(s)
		assert.Error(t, err, s)
	}
}

func TestValidateReasonLength(t *testing.T) {
	// Длина считается в рунах, кириллица не штрафуется.
	assert.True(t, ValidateReasonLength("боль в горле", 10, 500))
	assert.True(t, ValidateReasonLength("   боль в горле   ", 10, 500))
	assert.False(t, ValidateReasonLength("кашель", 10, 500))
	assert.False(t, ValidateReasonLength("          ", 10, 500))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("ivan.petrov@example.com"))
	assert.True(t, ValidateEmail("a+b@clinic.ru"))
	assert.False(t, ValidateEmail("ivan.petrov"))
	assert.False(t, ValidateEmail("@example.com"))
	assert.False(t, ValidateEmail("ivan@example"))
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+79161234567"))
	assert.True(t, ValidatePhone("89161234567"))
	// Разделители вычищаются перед проверкой.
	assert.True(t, ValidatePhone("+7 (916) 123-45-67"))
	assert.False(t, ValidatePhone("12345"))
	assert.False(t, ValidatePhone("телефон"))
}
