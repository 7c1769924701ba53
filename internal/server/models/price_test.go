package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice_KeepsTwoFractionDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `"10.40"`, want: `"10.40"`},
		{in: `10.4`, want: `"10.40"`},
		{in: `"5"`, want: `"5.00"`},
		{in: `0.1`, want: `"0.10"`},
		{in: `"999.99"`, want: `"999.99"`},
		{in: `"10.400"`, want: `"10.40"`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var p Price
			require.NoError(t, json.Unmarshal([]byte(tt.in), &p))
			require.NoError(t, p.Validate())

			out, err := json.Marshal(p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestPrice_SumHasNoDrift(t *testing.T) {
	a := MustPrice("0.10")
	b := MustPrice("0.20")
	sum := Price{d: a.d.Add(b.d)}
	assert.Equal(t, "0.30", sum.String())
	assert.True(t, sum.Equal(MustPrice("0.3")))
}

func TestPrice_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "negative", in: "-1.00"},
		{name: "three decimals", in: "1.005"},
		{name: "too many digits", in: "1000.00"},
		{name: "garbage", in: "ten"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePrice(tt.in)
			var ve *common.ValidationError
			require.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
			assert.NotEmpty(t, ve.Fields["price"])
		})
	}
}

func TestPrice_UnmarshalRejectsNullAndJunk(t *testing.T) {
	var p Price
	var ve *common.ValidationError

	err := json.Unmarshal([]byte(`null`), &p)
	require.True(t, errors.As(err, &ve))

	err = json.Unmarshal([]byte(`"abc"`), &p)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"A valid number is required."}, ve.Fields["price"])
}

func TestPrice_ValueAndScan(t *testing.T) {
	v, err := MustPrice("7.5").Value()
	require.NoError(t, err)
	assert.Equal(t, "7.50", v)

	var p Price
	require.NoError(t, p.Scan([]byte("12.30")))
	assert.Equal(t, "12.30", p.String())

	require.NoError(t, p.Scan("3.00"))
	assert.Equal(t, "3.00", p.String())
}
