package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/erazemk/auditmagic/internal/model"
)

func TestWriteReport(t *testing.T) {
	serial := "SN-001"
	items := []model.InventoryItem{
		{Item: model.Item{Quantity: 1, SerialNumber: &serial, Location: "Office"}, TypeName: "Laptop", IsSerialized: true},
		{Item: model.Item{Quantity: 5}, TypeName: "Desk", SubType: "Oak"},
	}
	txs := []model.Transaction{{
		Type:           model.TransactionRemove,
		QuantityChange: 1,
		QuantityBefore: 1,
		QuantityAfter:  0,
		SerialNumber:   &serial,
		Notes:          "written off",
		CreatedAt:      time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		TypeName:       "Laptop",
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, items, txs))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{InventorySheet, TransactionsSheet}, f.GetSheetList())

	rows, err := f.GetRows(InventorySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Type", rows[0][0])
	assert.Equal(t, []string{"Laptop", "", "SN-001", "1", "Office"}, rows[1])
	assert.Equal(t, []string{"Desk", "Oak", "", "5"}, rows[2])

	rows, err = f.GetRows(TransactionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2024-03-01 09:30:00", "Laptop", "", "remove", "1", "1", "0", "SN-001", "written off"}, rows[1])
}

func TestWriteReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(TransactionsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
