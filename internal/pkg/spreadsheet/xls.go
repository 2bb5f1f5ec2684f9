package spreadsheet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/extrame/ole2"
	"github.com/extrame/xls"
)

// ErrMalformedXLS is returned for legacy workbooks whose container or record
// layout is inconsistent.
var ErrMalformedXLS = errors.New("malformed xls workbook")

const (
	oleHeaderSize  = 512
	oleSectorSize  = 512
	oleSectorShift = 9
	oleMiniSize    = 64

	// BIFF8 sheets are 256 columns wide
	maxColumn = 255
	// a cell range ending on this row never terminates in the reader
	lastRowIndex = 0xFFFF
)

// BIFF record identifiers read by the xls reader
const (
	recFormula    = 0x006
	recEOF        = 0x00A
	recFont       = 0x031
	recContinue   = 0x03C
	recBoundSheet = 0x085
	recMulRK      = 0x0BD
	recMulBlank   = 0x0BE
	recSST        = 0x0FC
	recLabelSST   = 0x0FD
	recHyperlink  = 0x1B8
	recBlank      = 0x201
	recNumber     = 0x203
	recLabel      = 0x204
	recRow        = 0x208
	recRK         = 0x27E
	recFormat     = 0x41E
	recBOF        = 0x809
)

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedXLS, fmt.Sprintf(format, args...))
}

// readXLS returns the first sheet of a BIFF workbook indexed by sheet row.
// The xls reader trusts every offset, count and sector chain in the file and
// can exit the process on a broken one, so checkXLS vets the file first and
// any panic left over becomes an error.
func readXLS(data []byte) (grid [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			grid, err = nil, fmt.Errorf("open xls: %w: %v", ErrMalformedXLS, r)
		}
	}()

	shape, err := checkXLS(data)
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, ErrNoSheet
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrNoSheet
	}

	// ReadAllCells builds rows from the cells that exist, so rows missing
	// from the file come back nil. The first sheet fills max on its own.
	if sheet.MaxRow > 0 {
		return wb.ReadAllCells(int(sheet.MaxRow) + 1), nil
	}

	// ReadAllCells skips a sheet whose only row is the first one
	if !shape.hasRow0 {
		return nil, nil
	}
	row := sheet.Row(0)
	cells := make([]string, shape.row0Width)
	for j := range cells {
		cells[j] = row.Col(j)
	}
	return [][]string{cells}, nil
}

// sheetShape is what checkXLS saw of the first row of the first sheet
type sheetShape struct {
	hasRow0   bool
	row0Width int
}

// checkXLS walks the compound file and the BIFF records the same way the
// xls reader does and rejects anything that would make it index outside a
// sector table, loop forever or allocate more than the file holds.
func checkXLS(data []byte) (sheetShape, error) {
	if len(data) < oleHeaderSize {
		return sheetShape{}, malformed("file is shorter than a compound file header")
	}

	var h ole2.Header
	if err := binary.Read(bytes.NewReader(data[:oleHeaderSize]), binary.LittleEndian, &h); err != nil {
		return sheetShape{}, malformed("read header: %v", err)
	}
	if h.Id[0] != 0xE011CFD0 || h.Id[1] != 0xE11AB1A1 || h.Byteorder != 0xFFFE {
		return sheetShape{}, malformed("not a compound file")
	}
	if h.Lsectorb != oleSectorShift {
		return sheetShape{}, malformed("unsupported sector size 2^%d", h.Lsectorb)
	}

	sectors := uint32((len(data) - oleHeaderSize + oleSectorSize - 1) / oleSectorSize)
	whole := uint32((len(data) - oleHeaderSize) / oleSectorSize)
	if h.Cfat > sectors || h.Csfat > sectors || h.Cdif > sectors {
		return sheetShape{}, malformed("allocation table counts exceed the file")
	}
	if err := checkDIFAT(data, h.Difstart, sectors, difatSectors(sectors)); err != nil {
		return sheetShape{}, err
	}

	ole, err := ole2.Open(bytes.NewReader(data), "utf-8")
	if err != nil {
		return sheetShape{}, malformed("open container: %v", err)
	}
	if _, err := walkChain(ole.SecID, h.Dirstart, whole); err != nil {
		return sheetShape{}, malformed("directory: %v", err)
	}
	dir, err := ole.ListDir()
	if err != nil {
		return sheetShape{}, malformed("list directory: %v", err)
	}

	var book, root *ole2.File
	for _, f := range dir {
		if f.Bsize < 2 || f.Bsize > 64 {
			return sheetShape{}, malformed("directory entry name length %d", f.Bsize)
		}
		switch f.Name() {
		case "Workbook", "Book":
			book = f
		case "Root Entry":
			root = f
		}
	}
	if book == nil {
		return sheetShape{}, malformed("no Workbook stream")
	}

	if book.Size < h.Sectorcutoff {
		if root == nil {
			return sheetShape{}, malformed("short Workbook stream without a root entry")
		}
		n, err := walkChain(ole.SecID, root.Sstart, whole)
		if err != nil {
			return sheetShape{}, malformed("short stream container: %v", err)
		}
		if _, err := walkChain(ole.SSecID, book.Sstart, uint32(n*oleSectorSize/oleMiniSize)); err != nil {
			return sheetShape{}, malformed("Workbook stream: %v", err)
		}
	} else if _, err := walkChain(ole.SecID, book.Sstart, whole); err != nil {
		return sheetShape{}, malformed("Workbook stream: %v", err)
	}

	stream, err := io.ReadAll(ole.OpenFile(book, root))
	if err != nil {
		return sheetShape{}, malformed("read Workbook stream: %v", err)
	}
	return scanWorkbook(stream, book.Size)
}

// difatSectors is how many DIFAT sectors a file of n sectors can need. The
// header holds the first 109 FAT sector numbers and each DIFAT sector 127 more.
func difatSectors(n uint32) int {
	fat := (int(n) + 127) / 128
	if fat <= 109 {
		return 0
	}
	return (fat - 109 + 126) / 127
}

// checkDIFAT follows the DIFAT chain in the raw file. The reader follows it
// until ENDOFCHAIN and loads 127 FAT sectors per link.
func checkDIFAT(data []byte, start, sectors uint32, limit int) error {
	seen := make(map[uint32]struct{})
	for sid := start; sid != ole2.ENDOFCHAIN; {
		if sid >= sectors {
			return malformed("DIFAT sector %d is outside the file", sid)
		}
		if len(seen) == limit {
			return malformed("DIFAT chain is longer than %d sectors", limit)
		}
		if _, ok := seen[sid]; ok {
			return malformed("DIFAT chain loops at sector %d", sid)
		}
		seen[sid] = struct{}{}

		var next [4]byte
		if off := oleHeaderSize + int(sid+1)*oleSectorSize - 4; off < len(data) {
			copy(next[:], data[off:])
		}
		sid = binary.LittleEndian.Uint32(next[:])
	}
	return nil
}

// walkChain follows a sector chain to ENDOFCHAIN and returns its length.
// Every sector must index into sat and lie below limit.
func walkChain(sat []uint32, start, limit uint32) (int, error) {
	seen := make(map[uint32]struct{})
	for sid := start; sid != ole2.ENDOFCHAIN; sid = sat[sid] {
		if sid >= uint32(len(sat)) || sid >= limit {
			return 0, fmt.Errorf("sector %d is outside the file", sid)
		}
		if _, ok := seen[sid]; ok {
			return 0, fmt.Errorf("chain loops at sector %d", sid)
		}
		seen[sid] = struct{}{}
	}
	return len(seen), nil
}

// scanWorkbook replays the reader over the Workbook stream: the globals pass
// over the whole stream, then two passes over the first sheet since the
// sheet is parsed once on open and again when its cells are collected.
func scanWorkbook(stream []byte, size uint32) (sheetShape, error) {
	st := &biffScan{limit: uint32(len(stream))}

	sheets, err := st.globals(stream)
	if err != nil {
		return sheetShape{}, err
	}
	if len(sheets) == 0 {
		return sheetShape{}, ErrNoSheet
	}
	if sheets[0] >= size {
		return sheetShape{}, malformed("first sheet starts at %d past the stream end %d", sheets[0], size)
	}

	shape, err := st.sheet(stream, sheets[0], size)
	if err != nil {
		return sheetShape{}, err
	}
	if _, err := st.sheet(stream, sheets[0], size); err != nil {
		return sheetShape{}, err
	}
	return shape, nil
}

// bytes the reader takes for fixed-size cell records
var cellRecordSize = map[uint16]int{
	recNumber:   14,
	recRK:       10,
	recLabelSST: 10,
	recBlank:    6,
}

// biffScan carries the reader state that outlives a single record
type biffScan struct {
	limit uint32
	ver5  bool

	contUTF16 uint16
	contRich  uint16
	contAPSB  uint32

	sstCount uint32
}

func (s *biffScan) globals(stream []byte) ([]uint32, error) {
	c := &cursor{b: stream}
	var sheets []uint32
	var pre uint16
	offset := 0

	for {
		hdr, err := c.full(4)
		if err != nil {
			return sheets, nil
		}
		id := binary.LittleEndian.Uint16(hdr)
		size := int(binary.LittleEndian.Uint16(hdr[2:]))

		payload := make([]byte, size)
		if p, err := c.full(size); err == nil {
			copy(payload, p)
		}
		r := &cursor{b: payload}

		nextPre, nextOffset := id, 0
		switch id {
		case recBOF:
			if size < 16 || binary.LittleEndian.Uint16(payload) != 0x600 {
				s.ver5 = true
			}
		case recContinue:
			if pre == recSST {
				if offset, err = s.sstContinue(r, offset); err != nil {
					return nil, err
				}
			}
			nextPre, nextOffset = pre, offset
		case recSST:
			count := uint32(0)
			if p, err := r.full(8); err == nil {
				count = binary.LittleEndian.Uint32(p[4:])
			}
			if count > s.limit {
				return nil, malformed("shared string table claims %d strings", count)
			}
			s.sstCount = count
			if nextOffset, err = s.sst(r, count); err != nil {
				return nil, err
			}
		case recBoundSheet:
			var filepos uint32
			var name byte
			if p, err := r.full(7); err == nil {
				filepos, name = binary.LittleEndian.Uint32(p), p[6]
			}
			sheets = append(sheets, filepos)
			if _, err := s.str(r, uint16(name)); err != nil {
				return nil, err
			}
		case recFont:
			var name byte
			if p, err := r.full(15); err == nil {
				name = p[14]
			}
			if _, err := s.str(r, uint16(name)); err != nil {
				return nil, err
			}
		case recFormat:
			var n uint16
			if p, err := r.full(4); err == nil {
				n = binary.LittleEndian.Uint16(p[2:])
			}
			if _, err := s.str(r, n); err != nil {
				return nil, err
			}
		}
		pre, offset = nextPre, nextOffset
	}
}

func (s *biffScan) sst(r *cursor, count uint32) (int, error) {
	for i := 0; i < int(count); i++ {
		n, err := r.u16()
		if err != nil {
			// every later read fails too
			return int(count), nil
		}
		atEOF, err := s.str(r, n)
		if err != nil {
			return 0, err
		}
		if atEOF {
			return i, nil
		}
	}
	return int(count), nil
}

func (s *biffScan) sstContinue(r *cursor, offset int) (int, error) {
	var n uint16
	var readErr error
	if s.contUTF16 >= 1 {
		n, s.contUTF16 = s.contUTF16, 0
	} else {
		n, readErr = r.u16()
	}
	for readErr == nil && offset < int(s.sstCount) {
		if n > 0 {
			if _, err := s.str(r, n); err != nil {
				return 0, err
			}
		}
		offset++
		var next uint16
		if next, readErr = r.u16(); readErr == nil {
			n = next
		}
	}
	return offset, nil
}

// str consumes a string the way the reader does. atEOF reports whether the
// reader would end the string on io.EOF.
func (s *biffScan) str(r *cursor, n uint16) (atEOF bool, err error) {
	if s.ver5 {
		return r.some(int(n)) == io.EOF, nil
	}

	var rich uint16
	var phonetic uint32
	flag, readErr := r.u8()
	if flag&0x8 != 0 {
		var v uint16
		if v, readErr = r.u16(); readErr == nil {
			rich = v
		}
	} else if s.contRich > 0 {
		rich, s.contRich = s.contRich, 0
	}
	if flag&0x4 != 0 {
		var v uint32
		if v, readErr = r.u32(); readErr == nil {
			phonetic = v
		}
	} else if s.contAPSB > 0 {
		phonetic, s.contAPSB = s.contAPSB, 0
	}

	if flag&0x1 != 0 {
		i := uint16(0)
		for ; i < n && readErr == nil; i++ {
			_, readErr = r.u16()
		}
		if i < n {
			s.contUTF16 = n - i + 1
		}
	} else {
		got := r.left()
		readErr = r.some(int(n))
		if got < int(n) {
			s.contUTF16 = n - uint16(got)
			readErr = io.EOF
		}
	}

	if rich > 0 {
		_, readErr = r.full(int(uint16(4 * rich)))
		if readErr == io.EOF {
			s.contRich = rich
		}
	}
	if phonetic > 0 {
		if phonetic > s.limit {
			return false, malformed("phonetic block of %d bytes", phonetic)
		}
		_, readErr = r.full(int(phonetic))
		if readErr == io.EOF {
			s.contAPSB = phonetic
		}
	}
	return readErr == io.EOF, nil
}

// sheet replays the worksheet parser from start up to the EOF record.
// Relative seeks past size desynchronise the reader, so they are rejected.
func (s *biffScan) sheet(stream []byte, start, size uint32) (sheetShape, error) {
	c := &cursor{b: stream, pos: int(start)}
	var shape sheetShape

	seek := func(n int) error {
		c.skip(n)
		if c.pos >= int(size) {
			return malformed("sheet runs past the end of the Workbook stream")
		}
		return nil
	}
	cell := func(row, first, last uint16) error {
		if first > maxColumn || last > maxColumn {
			return malformed("cell in column %d on row %d", int(max(first, last))+1, int(row)+1)
		}
		if row == 0 {
			shape.hasRow0 = true
			shape.row0Width = max(shape.row0Width, int(last)+1)
		}
		return nil
	}

	for {
		hdr, err := c.full(4)
		if err != nil {
			return shape, nil
		}
		id := binary.LittleEndian.Uint16(hdr)
		size16 := binary.LittleEndian.Uint16(hdr[2:])

		switch id {
		case recRow:
			var index uint16
			if p, err := c.full(16); err == nil {
				index = binary.LittleEndian.Uint16(p)
			}
			if index == 0 {
				shape.hasRow0 = true
			}
		case recMulRK, recMulBlank:
			width := 6
			if id == recMulBlank {
				width = 2
			}
			n := int((size16 - 6) / uint16(width))
			row, first := c.coords()
			for i := 0; i < n; i++ {
				c.full(width)
			}
			var last uint16
			if v, err := c.u16(); err == nil {
				last = v
			}
			err = cell(row, first, last)
		case recNumber, recRK, recLabelSST, recBlank:
			p, _ := c.full(cellRecordSize[id])
			var row, col uint16
			if p != nil {
				row, col = binary.LittleEndian.Uint16(p), binary.LittleEndian.Uint16(p[2:])
				if id == recLabelSST && binary.LittleEndian.Uint32(p[6:]) >= s.sstCount {
					return shape, malformed("shared string %d on row %d is not in the table", binary.LittleEndian.Uint32(p[6:]), int(row)+1)
				}
			} else if id == recLabelSST && s.sstCount == 0 {
				return shape, malformed("shared string cell without a string table")
			}
			err = cell(row, col, col)
		case recFormula:
			var row, col uint16
			if p, err := c.full(20); err == nil {
				row, col = binary.LittleEndian.Uint16(p), binary.LittleEndian.Uint16(p[2:])
			}
			c.full(int(size16 - 20))
			err = cell(row, col, col)
		case recLabel:
			var row, col uint16
			if p, err := c.full(6); err == nil {
				row, col = binary.LittleEndian.Uint16(p), binary.LittleEndian.Uint16(p[2:])
			}
			var n uint16
			if v, err := c.u16(); err == nil {
				n = v
			}
			if _, err := s.str(c, n); err != nil {
				return shape, err
			}
			err = cell(row, col, col)
		case recHyperlink:
			err = s.hyperlink(c, seek, cell)
		case recEOF:
			return shape, nil
		default:
			err = seek(int(size16))
		}
		if err != nil {
			return shape, err
		}
	}
}

func (s *biffScan) hyperlink(c *cursor, seek func(int) error, cell func(row, first, last uint16) error) error {
	var firstRow, lastRow, firstCol, lastCol uint16
	if p, err := c.full(8); err == nil {
		firstRow = binary.LittleEndian.Uint16(p)
		lastRow = binary.LittleEndian.Uint16(p[2:])
		firstCol = binary.LittleEndian.Uint16(p[4:])
		lastCol = binary.LittleEndian.Uint16(p[6:])
	}
	if lastRow == lastRowIndex {
		return malformed("hyperlink range ends on the last sheet row")
	}
	if err := seek(20); err != nil {
		return err
	}

	var flag, count uint32
	if v, err := c.u32(); err == nil {
		flag = v
	}
	readCount := func() {
		if v, err := c.u32(); err == nil {
			count = v
		}
	}
	text := func(units uint32) error {
		if units > s.limit {
			return malformed("hyperlink text of %d characters", units)
		}
		c.full(2 * int(units))
		return nil
	}

	if flag&0x14 != 0 {
		readCount()
		if err := text(count); err != nil {
			return err
		}
	}
	if flag&0x80 != 0 {
		readCount()
		if err := text(count); err != nil {
			return err
		}
	}
	if flag&0x1 != 0 {
		var guid [2]uint64
		if p, err := c.full(16); err == nil {
			guid[0], guid[1] = binary.BigEndian.Uint64(p), binary.BigEndian.Uint64(p[8:])
		}
		switch guid {
		case [2]uint64{0xE0C9EA79F9BACE11, 0x8C8200AA004BA90B}:
			readCount()
			if err := text(count / 2); err != nil {
				return err
			}
		case [2]uint64{0x303000000000000, 0xC000000000000046}:
			c.full(2)
			readCount()
			if count > s.limit {
				return malformed("hyperlink path of %d bytes", count)
			}
			c.full(int(count))
			if err := seek(24); err != nil {
				return err
			}
			readCount()
			if count > 0 {
				readCount()
				if err := seek(2); err != nil {
					return err
				}
				if err := text(count/2 + 1); err != nil {
					return err
				}
			}
		}
	}
	if flag&0x8 != 0 {
		readCount()
		if err := text(count); err != nil {
			return err
		}
	}

	if firstRow > lastRow {
		return nil
	}
	// the reader copies the link into every cell of the range
	if area := (int(lastRow) - int(firstRow) + 1) * (int(lastCol) - int(firstCol) + 1); area > int(s.limit) {
		return malformed("hyperlink covers %d cells", area)
	}
	return cell(firstRow, firstCol, lastCol)
}

// cursor reads a byte slice with the semantics of binary.Read and
// bytes.Reader.Read: a short read consumes what is left and yields nothing.
type cursor struct {
	b   []byte
	pos int
}

func (c *cursor) left() int {
	return len(c.b) - c.pos
}

func (c *cursor) full(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	switch left := c.left(); {
	case left == 0:
		return nil, io.EOF
	case left < n:
		c.pos = len(c.b)
		return nil, io.ErrUnexpectedEOF
	}
	p := c.b[c.pos : c.pos+n]
	c.pos += n
	return p, nil
}

func (c *cursor) some(n int) error {
	if c.left() == 0 {
		return io.EOF
	}
	c.pos += min(n, c.left())
	return nil
}

func (c *cursor) skip(n int) {
	c.pos = min(c.pos+n, len(c.b))
}

func (c *cursor) u8() (byte, error) {
	p, err := c.full(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (c *cursor) u16() (uint16, error) {
	p, err := c.full(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p), nil
}

func (c *cursor) u32() (uint32, error) {
	p, err := c.full(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

// coords reads the row and first column that open every cell record
func (c *cursor) coords() (row, col uint16) {
	if p, err := c.full(4); err == nil {
		row, col = binary.LittleEndian.Uint16(p), binary.LittleEndian.Uint16(p[2:])
	}
	return row, col
}
