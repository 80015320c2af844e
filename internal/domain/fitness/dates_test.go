package fitness

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

func TestParseDates(t *testing.T) {
	got, err := ParseDates([]string{"2024-01-02", "01/03/2024", "March 4, 2024"})
	require.NoError(t, err)
	require.Equal(t, []RequestedDate{
		{Raw: "2024-01-02", Day: day("2024-01-02")},
		{Raw: "01/03/2024", Day: day("2024-01-03")},
		{Raw: "March 4, 2024", Day: day("2024-03-04")},
	}, got)
}

func TestParseDatesRejects(t *testing.T) {
	_, err := ParseDates(nil)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = ParseDates([]string{"2024-01-02", "not a date"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}
