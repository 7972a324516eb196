package decoding

import (
	"bufio"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"strconv"
	"strings"
)

var ErrHeaderNotFound = errors.New("yenc header not found")
var ErrTrailerNotFound = errors.New("yenc =yend trailer not found")

// Header carries the attributes of the =ybegin (and =ypart) lines.
type Header struct {
	Name  string
	Size  int64
	Line  int
	Part  int
	Begin int64
	End   int64
}

type YencDecoder struct {
	scanner    *bufio.Reader
	header     Header
	reachedEnd bool
	escaped    bool // State: was the previous byte '='?
	hash       hash.Hash32
	written    int64

	expectedCRC  uint32
	hasCRC       bool
	expectedSize int64
}

func NewYencDecoder(r io.Reader) *YencDecoder {
	return &YencDecoder{
		scanner:      bufio.NewReader(r),
		hash:         crc32.NewIEEE(), // yEnc uses the standard IEEE polynomial
		expectedSize: -1,
	}
}

// DiscardHeader skips everything up to and including =ybegin (and a
// following =ypart line) and records their attributes.
func (d *YencDecoder) DiscardHeader() error {
	for {
		line, err := d.scanner.ReadString('\n')
		if strings.HasPrefix(line, "=ybegin ") {
			d.header = parseHeaderLine(line, d.header)
			return d.handlePotentialPartHeader()
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrHeaderNotFound
			}
			return fmt.Errorf("searching for yenc header: %w", err)
		}
	}
}

func (d *YencDecoder) Header() Header { return d.header }

func (d *YencDecoder) Read(p []byte) (n int, err error) {
	if d.reachedEnd {
		return 0, io.EOF
	}

	for n < len(p) {
		b, err := d.scanner.ReadByte()
		if err != nil {
			return n, err
		}

		if b == '=' && !d.escaped {
			// Peek ahead to see if this is actually the end of the part
			peek, _ := d.scanner.Peek(4)
			if string(peek) == "yend" {
				d.reachedEnd = true
				d.parseFooter()
				return n, io.EOF
			}

			d.escaped = true
			continue
		}

		if b == '\r' || b == '\n' {
			// line breaks are never data; an escaped one cannot occur
			d.escaped = false
			continue
		}

		var decoded byte
		if d.escaped {
			decoded = b - 64 - 42
			d.escaped = false
		} else {
			decoded = b - 42
		}

		p[n] = decoded
		d.hash.Write(p[n : n+1])
		d.written++
		n++
	}

	return n, nil
}

// Verify checks the decoded data against the =yend size and CRC. Call it
// after Read has returned io.EOF.
func (d *YencDecoder) Verify() error {
	if !d.reachedEnd {
		return ErrTrailerNotFound
	}
	if d.expectedSize >= 0 && d.expectedSize != d.written {
		return fmt.Errorf("size mismatch: expected %d, got %d", d.expectedSize, d.written)
	}
	if !d.hasCRC {
		return nil
	}
	if actual := d.hash.Sum32(); actual != d.expectedCRC {
		return fmt.Errorf("checksum mismatch: expected %08X, got %08X", d.expectedCRC, actual)
	}
	return nil
}

func (d *YencDecoder) parseFooter() {
	line, _ := d.scanner.ReadString('\n')
	// Typical footer: =yend size=12345 part=1 pcrc32=ABC12345
	var partCRC, fileCRC string
	for _, part := range strings.Fields(line) {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch key {
		case "size":
			if n, err := strconv.ParseInt(val, 10, 64); err == nil {
				d.expectedSize = n
			}
		case "pcrc32":
			partCRC = val
		case "crc32":
			fileCRC = val
		}
	}

	// the part CRC covers exactly what was decoded; crc32 is the fallback
	crc := partCRC
	if crc == "" {
		crc = fileCRC
	}
	if v, err := strconv.ParseUint(crc, 16, 32); err == nil {
		d.expectedCRC = uint32(v)
		d.hasCRC = true
	}
}

func (d *YencDecoder) handlePotentialPartHeader() error {
	// Peek so binary data is not consumed when there is no =ypart line
	peek, _ := d.scanner.Peek(6)
	if string(peek) != "=ypart" {
		return nil
	}

	line, err := d.scanner.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	d.header = parseHeaderLine(line, d.header)
	return nil
}

// parseHeaderLine reads key=value pairs. name= always comes last and may
// contain spaces, so it takes the rest of the line.
func parseHeaderLine(line string, h Header) Header {
	line = strings.TrimRight(line, "\r\n")
	if i := strings.Index(line, " name="); i >= 0 {
		h.Name = line[i+len(" name="):]
		line = line[:i]
	}

	for _, f := range strings.Fields(line)[1:] {
		key, val, ok := strings.Cut(f, "=")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		switch key {
		case "size":
			h.Size = n
		case "line":
			h.Line = int(n)
		case "part":
			h.Part = int(n)
		case "begin":
			h.Begin = n
		case "end":
			h.End = n
		}
	}
	return h
}

// DecodeBody decodes a complete yEnc article body into w and verifies it.
func DecodeBody(body io.Reader, w io.Writer) (Header, int64, error) {
	d := NewYencDecoder(body)
	if err := d.DiscardHeader(); err != nil {
		return Header{}, 0, err
	}

	n, err := io.Copy(w, d)
	if err != nil {
		return d.Header(), n, fmt.Errorf("decoding %s: %w", d.Header().Name, err)
	}

	if err := d.Verify(); err != nil {
		return d.Header(), n, fmt.Errorf("verifying %s: %w", d.Header().Name, err)
	}
	return d.Header(), n, nil
}
