package accounts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/microerp/internal/model"
)

func TestRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{Number: "5700", Subaccount: "0001", Description: "Caja General", Classification: model.ClassificationAsset},
		{Number: "6000", Subaccount: "0000", Description: "Compras, mercaderías", Classification: model.ClassificationExpense, ExternalCode: "EXT-60"},
	}

	var buf bytes.Buffer
	err := WriteAccounts(&buf, accounts)
	require.NoError(t, err)

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, accounts[0].Number, got[0].Number)
	assert.Equal(t, accounts[0].Subaccount, got[0].Subaccount)
	assert.Equal(t, accounts[0].Description, got[0].Description)
	assert.Equal(t, accounts[0].Classification, got[0].Classification)

	assert.Equal(t, "Compras, mercaderías", got[1].Description, "commas survive quoting")
	assert.Equal(t, "EXT-60", got[1].ExternalCode)
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, nil))
	assert.Equal(t, "cuenta,subcuenta,descripcion,clasificacion,codigo_externo\n", buf.String())
}

func TestReadWrongFieldCount(t *testing.T) {
	input := "cuenta,subcuenta,descripcion,clasificacion,codigo_externo\n5700,0001,Caja\n"
	_, err := ReadAccounts(strings.NewReader(input))
	require.Error(t, err)
}

func TestReadEmpty(t *testing.T) {
	got, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAllClassifications(t *testing.T) {
	for _, c := range model.Classifications {
		acct := model.Account{Number: "1000", Subaccount: "0000", Description: "Test", Classification: c}

		var buf bytes.Buffer
		err := WriteAccounts(&buf, []model.Account{acct})
		require.NoError(t, err)

		got, err := ReadAccounts(&buf)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, c, got[0].Classification, "classification %q should survive round-trip", c)
	}
}

func TestDefaultChart(t *testing.T) {
	chart := DefaultChart()
	require.Len(t, chart, 3)

	idx := NewIndex(chart)
	_, ok := idx.ByCode("5700-0001")
	assert.True(t, ok, "expected Caja General (5700-0001)")
	_, ok = idx.ByCode("7000-0000")
	assert.True(t, ok, "expected Venta de Mercaderías (7000-0000)")

	for _, acct := range chart {
		assert.NoError(t, Validate(acct), "default account %s must be valid", acct.Code())
	}
}
