package lumes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseMeasurementTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "regular time",
			input: "29.09.2017, 10:30",
			want:  time.Date(2017, 9, 29, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "hour 24 rolls into next day",
			input: "15.03.2020, 24:00",
			want:  time.Date(2020, 3, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "hour 24 at month end",
			input: "31.01.2020, 24:00",
			want:  time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "ISO notation rejected",
			input:   "2020-03-15 10:00",
			wantErr: true,
		},
		{
			name:    "publish notation rejected",
			input:   "29.09.17-10:30:00",
			wantErr: true,
		},
		{
			name:    "empty cell",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMeasurementTime(tt.input, time.UTC)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedDate)
				return
			}
			assert.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestHour24EqualsNextMidnight(t *testing.T) {
	a, err := ParseMeasurementTime("15.03.2020, 24:00", time.UTC)
	assert.NoError(t, err)
	b, err := ParseMeasurementTime("16.03.2020, 00:00", time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParsePublishTime(t *testing.T) {
	got, err := ParsePublishTime("29.09.17-10:30:00", time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2017, 9, 29, 10, 30, 0, 0, time.UTC), got)

	_, err = ParsePublishTime("29.09.2017, 10:30", time.UTC)
	assert.ErrorIs(t, err, ErrMalformedDate)
}
