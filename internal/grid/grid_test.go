package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColToName(t *testing.T) {
	tests := map[int]string{
		0:     "A",
		25:    "Z",
		26:    "AA",
		51:    "AZ",
		701:   "ZZ",
		702:   "AAA",
		16383: "XFD",
	}
	for in, want := range tests {
		assert.Equal(t, want, ColToName(in))
	}
}

func TestNameToColRoundTrip(t *testing.T) {
	for col := 0; col <= MaxCol; col++ {
		got, ok := NameToCol(ColToName(col))
		require.True(t, ok, "col %d", col)
		require.Equal(t, col, got)
	}
	_, ok := NameToCol("XFE")
	assert.False(t, ok)
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in   string
		want Address
	}{
		{"A1", Address{Col: 0, Row: 0}},
		{"B4", Address{Col: 1, Row: 3}},
		{"aa12", Address{Col: 26, Row: 11}},
		{"$A$1", Address{Col: 0, Row: 0, AbsCol: true, AbsRow: true}},
		{"$C7", Address{Col: 2, Row: 6, AbsCol: true}},
		{"C$7", Address{Col: 2, Row: 6, AbsRow: true}},
		{"$$D2", Address{Col: 3, Row: 1, AbsCol: true}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAddress_Malformed(t *testing.T) {
	for _, in := range []string{"", "A", "1", "A0", "A1B", "1A", "A$", "$", "A-1", "XFE1", "A1 "} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseAddress(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedAddress))
			var addrErr *AddressError
			require.ErrorAs(t, err, &addrErr)
			assert.Equal(t, in, addrErr.Text)
		})
	}
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "B4", FormatAddress(Address{Col: 1, Row: 3}))
	assert.Equal(t, "$AA$12", FormatAddress(Address{Col: 26, Row: 11, AbsCol: true, AbsRow: true}))
	assert.Equal(t, "C$7", Address{Col: 2, Row: 6, AbsRow: true}.String())
}

func TestAddressRoundTrip(t *testing.T) {
	for col := 0; col <= 701; col++ {
		for row := 0; row <= 999; row++ {
			for flags := 0; flags < 4; flags++ {
				a := Address{Col: col, Row: row, AbsCol: flags&1 != 0, AbsRow: flags&2 != 0}
				got, err := ParseAddress(FormatAddress(a))
				if err != nil || got != a {
					t.Fatalf("round trip %+v: got %+v, %v", a, got, err)
				}
			}
		}
	}
}

func TestAddressShift(t *testing.T) {
	a := MustParseAddress("$B2")
	got, ok := a.Shift(1, 2)
	require.True(t, ok)
	assert.Equal(t, "$C4", got.String())

	_, ok = a.Shift(-2, 0)
	assert.False(t, ok)
	_, ok = a.Shift(0, -2)
	assert.False(t, ok)
}

func TestTable(t *testing.T) {
	tbl, err := FromNames(map[string]string{"A1": "5", "C3": "=A1*2"})
	require.NoError(t, err)

	c, ok := tbl.Get(MustParseAddress("$A$1"))
	require.True(t, ok)
	assert.False(t, c.IsFormula())

	c, ok = tbl.Get(MustParseAddress("C3"))
	require.True(t, ok)
	assert.True(t, c.IsFormula())

	maxCol, maxRow := tbl.Bounds()
	assert.Equal(t, 2, maxCol)
	assert.Equal(t, 2, maxRow)

	clone := tbl.Clone()
	clone.Set(MustParseAddress("A1"), "")
	_, ok = tbl.Get(MustParseAddress("A1"))
	assert.True(t, ok)
	_, ok = clone.Get(MustParseAddress("A1"))
	assert.False(t, ok)

	_, err = FromNames(map[string]string{"A0": "1"})
	assert.ErrorIs(t, err, ErrMalformedAddress)
}
