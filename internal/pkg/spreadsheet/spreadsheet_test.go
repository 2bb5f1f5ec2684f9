package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX_ReadBack(t *testing.T) {
	data, err := WriteXLSX("Attendance",
		[]string{"Roll No", "Name", "Attendance", "Date"},
		[][]string{
			{"01", "Ayu", "", "2024-07-01"},
			{"02", "Budi", "P", "2024-07-01"},
		})
	require.NoError(t, err)

	table, err := Read(bytes.NewReader(data), "attendance.xlsx")
	require.NoError(t, err)

	assert.Equal(t, []string{"Roll No", "Name", "Attendance", "Date"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, 2, table.Rows[0].Number)
	assert.Equal(t, "01", table.Rows[0].Get("Roll No"))
	assert.Equal(t, "", table.Rows[0].Get("Attendance"))
	assert.Equal(t, "2024-07-01", table.Rows[0].Get("Date"))
	assert.Equal(t, "P", table.Rows[1].Get("Attendance"))
}

func TestWriteXLSX_SheetName(t *testing.T) {
	data, err := WriteXLSX("Attendance", []string{"Roll No"}, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Attendance"}, f.GetSheetList())
}

func TestRead_SkipsBlankRowsAndTrimsHeader(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A2", " Roll No "))
	require.NoError(t, f.SetCellValue(sheet, "B2", "Attendance"))
	require.NoError(t, f.SetCellValue(sheet, "A3", "07"))
	require.NoError(t, f.SetCellValue(sheet, "B3", "absent"))
	require.NoError(t, f.SetCellValue(sheet, "A5", "08"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := Read(bytes.NewReader(buf.Bytes()), "upload.XLSX")
	require.NoError(t, err)

	assert.True(t, table.HasColumn("Roll No"))
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "07", table.Rows[0].Get("Roll No"))
	assert.Equal(t, "absent", table.Rows[0].Get("Attendance"))
	assert.Equal(t, 5, table.Rows[1].Number)
	assert.Equal(t, "", table.Rows[1].Get("Attendance"))
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("roll,attendance")), "sheet.csv")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Read(bytes.NewReader([]byte("not a zip")), "sheet.xlsx")
	assert.Error(t, err)

	_, err = Read(bytes.NewReader([]byte("not an ole2 file")), "sheet.xls")
	assert.Error(t, err)

	empty, err := WriteXLSX("Attendance", nil, nil)
	require.NoError(t, err)
	_, err = Read(bytes.NewReader(empty), "empty.xlsx")
	assert.ErrorIs(t, err, ErrNoHeader)
}
