package spreadsheet

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestRead_XLS(t *testing.T) {
	table, err := Read(bytes.NewReader(readFixture(t, "attendance.xls")), "attendance.xls")
	require.NoError(t, err)

	// ROW records store one past the last column; the header must not grow
	// an empty trailing column from it
	assert.Equal(t, []string{"Roll No", "Name", "Attendance", "Date"}, table.Header)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, 2, table.Rows[0].Number)
	assert.Equal(t, "01", table.Rows[0].Get("Roll No"))
	assert.Equal(t, "Ayu", table.Rows[0].Get("Name"))
	assert.Equal(t, "present", table.Rows[0].Get("Attendance"))
	assert.Equal(t, "2024-07-01", table.Rows[0].Get("Date"))

	assert.Equal(t, 3, table.Rows[1].Number)
	assert.Equal(t, "02", table.Rows[1].Get("Roll No"))
	assert.Equal(t, "absent", table.Rows[1].Get("Attendance"))
}

func TestRead_XLSMissingRows(t *testing.T) {
	// sheet row 3 has no record at all in the file
	table, err := Read(bytes.NewReader(readFixture(t, "attendance_sparse.xls")), "attendance_sparse.xls")
	require.NoError(t, err)

	assert.Equal(t, []string{"Roll No", "Name", "Attendance", "Date"}, table.Header)
	require.Len(t, table.Rows, 4)

	numbers := make([]int, len(table.Rows))
	for i, r := range table.Rows {
		numbers[i] = r.Number
	}
	assert.Equal(t, []int{2, 4, 5, 6}, numbers)

	assert.Equal(t, "P", table.Rows[0].Get("Attendance"))
	assert.Equal(t, "02", table.Rows[1].Get("Roll No"))
	assert.Equal(t, "a", table.Rows[1].Get("Attendance"))
	assert.Equal(t, "99", table.Rows[2].Get("Roll No"))

	// numeric cell, and a row shorter than the header
	assert.Equal(t, "3", table.Rows[3].Get("Roll No"))
	assert.Equal(t, "Citra", table.Rows[3].Get("Name"))
	assert.Equal(t, "", table.Rows[3].Get("Date"))
}

func TestRead_XLSHeaderOnly(t *testing.T) {
	table, err := Read(bytes.NewReader(readFixture(t, "header_only.xls")), "header_only.xls")
	require.NoError(t, err)

	assert.Equal(t, []string{"Roll No", "Name", "Attendance", "Date"}, table.Header)
	assert.Empty(t, table.Rows)
}

// Offsets into testdata/attendance.xls: 512-byte header, FAT in sector 0,
// directory in sector 1 and the Workbook stream from sector 2.
const (
	offSectorShift   = 30
	offDIFATStart    = 68
	offFAT           = 512
	offBookNameChar  = 1024 + 128 + 14
	offBookNameSize  = 1024 + 128 + 64
	offSheetPos      = 0x618
	offSSTCount      = 0x632
	offFirstCellCol  = 0x6ec
	offFirstCellSST  = 0x6f0
	fixtureLastBlock = 9
)

func TestRead_XLSMalformed(t *testing.T) {
	put32 := func(off int, v uint32) func([]byte) []byte {
		return func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[off:], v)
			return b
		}
	}
	put16 := func(off int, v uint16) func([]byte) []byte {
		return func(b []byte) []byte {
			binary.LittleEndian.PutUint16(b[off:], v)
			return b
		}
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"truncated inside the Workbook stream", func(b []byte) []byte { return b[:1600] }},
		{"4096-byte sectors", put16(offSectorShift, 12)},
		{"DIFAT chain starting on a free sector", put32(offDIFATStart, 0xFFFFFFFF)},
		{"Workbook chain leaving the file", put32(offFAT+4*5, 4096)},
		{"Workbook chain looping", put32(offFAT+4*fixtureLastBlock, 2)},
		{"directory entry without a name", put16(offBookNameSize, 0)},
		{"no Workbook stream", put16(offBookNameChar, 'x')},
		{"sheet offset past the stream", put32(offSheetPos, 5000)},
		{"shared string count larger than the file", put32(offSSTCount, 0x7FFFFFFF)},
		{"shared string index outside the table", put32(offFirstCellSST, 999)},
		{"cell beyond the last column", put16(offFirstCellCol, 300)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(readFixture(t, "attendance.xls"))

			_, err := Read(bytes.NewReader(data), "attendance.xls")
			assert.ErrorIs(t, err, ErrMalformedXLS)
		})
	}
}

func TestRead_XLSCorruptBytes(t *testing.T) {
	orig := readFixture(t, "attendance_sparse.xls")

	// every byte of the container and the records set to 0xFF in turn
	for i := 0; i < 0x840; i++ {
		data := bytes.Clone(orig)
		data[i] = 0xFF
		table, err := Read(bytes.NewReader(data), "attendance.xls")
		if err == nil {
			assert.NotNil(t, table.Header, "offset %#x", i)
		}
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		data := bytes.Clone(orig)
		for j := 0; j < 4; j++ {
			data[rng.Intn(0x840)] = byte(rng.Intn(256))
		}
		table, err := Read(bytes.NewReader(data), "attendance.xls")
		if err == nil {
			assert.NotNil(t, table.Header, "round %d", i)
		}
	}
}

// record encodes a BIFF record from fixed-size values
func record(id uint16, fields ...any) []byte {
	var payload bytes.Buffer
	for _, f := range fields {
		_ = binary.Write(&payload, binary.LittleEndian, f)
	}
	out := binary.LittleEndian.AppendUint16(nil, id)
	out = binary.LittleEndian.AppendUint16(out, uint16(payload.Len()))
	return append(out, payload.Bytes()...)
}

// biffStream lays out a Workbook stream with one sheet
func biffStream(globals [][]byte, sheet ...[]byte) []byte {
	bof := func(typ uint16) []byte {
		return record(recBOF, uint16(0x600), typ, uint16(0), uint16(0), uint32(0), uint32(0))
	}
	head := func(filepos uint32) []byte {
		parts := append([][]byte{bof(0x5)}, globals...)
		parts = append(parts,
			record(recBoundSheet, filepos, uint8(0), uint8(0), uint8(1), uint8(0), []byte("S")),
			record(recEOF))
		return bytes.Join(parts, nil)
	}
	stream := head(0)
	stream = head(uint32(len(stream)))

	body := append([][]byte{bof(0x10)}, sheet...)
	body = append(body, record(recEOF))
	return append(stream, bytes.Join(body, nil)...)
}

func TestScanWorkbook(t *testing.T) {
	stream := biffStream(nil,
		record(recLabel, uint16(0), uint16(0), uint16(0), uint16(2), uint8(0), []byte("ID")),
		record(recNumber, uint16(0), uint16(2), uint16(0), float64(7)),
		record(recRow, uint16(3), uint16(0), uint16(1), uint16(0), uint16(0), uint16(0), uint32(0)),
		record(recHyperlink, uint16(3), uint16(4), uint16(0), uint16(1), make([]byte, 20), uint32(0)),
	)

	shape, err := scanWorkbook(stream, uint32(len(stream)))
	require.NoError(t, err)
	assert.Equal(t, sheetShape{hasRow0: true, row0Width: 3}, shape)

	_, err = scanWorkbook(biffStream(nil), 0)
	assert.ErrorIs(t, err, ErrMalformedXLS, "sheet offset past the declared stream size")
}

func TestScanWorkbook_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		globals [][]byte
		sheet   [][]byte
	}{
		{
			name:    "string table larger than the stream",
			globals: [][]byte{record(recSST, uint32(1), uint32(0x7FFFFFFF))},
		},
		{
			name:    "shared string with a huge phonetic block",
			globals: [][]byte{record(recSST, uint32(1), uint32(1), uint16(1), uint8(0x4), uint32(0x7FFFFFFF), []byte("A"))},
		},
		{
			name:  "label with a huge phonetic block",
			sheet: [][]byte{record(recLabel, uint16(0), uint16(0), uint16(0), uint16(1), uint8(0x4), uint32(0x7FFFFFFF), []byte("A"))},
		},
		{
			name:  "hyperlink ending on the last row",
			sheet: [][]byte{record(recHyperlink, uint16(0), uint16(0xFFFF), uint16(0), uint16(0), make([]byte, 20), uint32(0))},
		},
		{
			name:  "hyperlink over the whole sheet",
			sheet: [][]byte{record(recHyperlink, uint16(0), uint16(0xFFFE), uint16(0), uint16(255), make([]byte, 20), uint32(0))},
		},
		{
			name:  "hyperlink description longer than the stream",
			sheet: [][]byte{record(recHyperlink, uint16(1), uint16(1), uint16(0), uint16(0), make([]byte, 20), uint32(0x14), uint32(0x7FFFFFFF))},
		},
		{
			name:  "cell past the last column",
			sheet: [][]byte{record(recNumber, uint16(1), uint16(300), uint16(0), float64(1))},
		},
		{
			name:  "shared string cell without a table",
			sheet: [][]byte{record(recLabelSST, uint16(1), uint16(0), uint16(0), uint32(0))},
		},
		{
			name:  "record running past the stream end",
			sheet: [][]byte{{0x99, 0x00, 0xFF, 0xFF}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := biffStream(tt.globals, tt.sheet...)
			_, err := scanWorkbook(stream, uint32(len(stream)))
			assert.ErrorIs(t, err, ErrMalformedXLS)
		})
	}
}
