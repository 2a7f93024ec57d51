package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	t.Parallel()

	cols := Columns()
	require.Len(t, cols, 53)
	assert.Equal(t, "SKU", cols[0].Label)
	assert.Equal(t, "RETORNO", cols[len(cols)-1].Label)
	assert.Equal(t, "DISPONIVEL_VENDA", cols[48].Name)

	seen := map[string]bool{}
	for _, c := range cols {
		assert.False(t, seen[c.Name], "duplicate canonical name %s", c.Name)
		seen[c.Name] = true
	}

	kinds := map[Kind]int{}
	for _, c := range cols {
		kinds[c.Kind]++
	}
	assert.Equal(t, 19, kinds[KindNumeric])
	assert.Equal(t, 8, kinds[KindDocument])
	assert.Equal(t, 8, kinds[KindDate])
	assert.Equal(t, 1, kinds[KindProductCode])

	for _, k := range KeyColumns {
		assert.GreaterOrEqual(t, Index(k), 0, k)
	}
	assert.Equal(t, -1, Index("NOPE"))
}

func TestValidateHeader(t *testing.T) {
	t.Parallel()

	good := Labels()
	swapped := Labels()
	swapped[49], swapped[50] = swapped[50], swapped[49]
	renamed := Labels()
	renamed[1] = "DESCRICAO SKU"
	decomposed := Labels()
	decomposed[1] = "DESCRIC\u0327A\u0303O SKU"

	tests := []struct {
		name    string
		header  []string
		wantErr bool
		pos     int
	}{
		{name: "exact", header: good},
		{name: "nfd accents", header: decomposed},
		{name: "swapped", header: swapped, wantErr: true, pos: 49},
		{name: "renamed", header: renamed, wantErr: true, pos: 1},
		{name: "short", header: good[:52], wantErr: true, pos: 52},
		{name: "extra", header: append(Labels(), "EXTRA"), wantErr: true, pos: 53},
		{name: "empty", header: nil, wantErr: true, pos: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateHeader(tc.header)
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchemaMismatch))
			var me *MismatchError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tc.pos, me.Position)
			assert.Equal(t, Labels(), me.Expected)
		})
	}
}
