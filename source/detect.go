package source

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/h2non/filetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func isUTF32BigEndianBOM4(buf []byte) bool {
	return buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

func isUTF8BOM3(buf []byte) bool {
	return buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return buf[0] == 0xFF && buf[1] == 0xFE
}

// detectUTF looks for BOM, UTF-32 has to be checked before UTF-16.
func detectUTF(buf []byte) srcEncoding {
	if len(buf) >= 4 {
		if isUTF32BigEndianBOM4(buf) {
			return encUTF32BigEndian
		}
		if isUTF32LittleEndianBOM4(buf) {
			return encUTF32LittleEndian
		}
	}
	if len(buf) >= 3 && isUTF8BOM3(buf) {
		return encUTF8
	}
	if len(buf) >= 2 {
		if isUTF16BigEndianBOM2(buf) {
			return encUTF16BigEndian
		}
		if isUTF16LittleEndianBOM2(buf) {
			return encUTF16LittleEndian
		}
	}
	return encUnknown
}

// selectReader returns reader which strips BOM and converts text to UTF-8.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	case encUTF16BigEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF16LittleEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF32BigEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder())
	case encUTF32LittleEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder())
	}
	panic(fmt.Sprintf("unexpected source encoding %d", enc))
}

// decode converts data with BOM to UTF-8, reporting whether conversion took
// place.
func decode(data []byte) ([]byte, bool, error) {
	enc := detectUTF(data)
	if enc == encUnknown {
		return data, false, nil
	}
	out, err := io.ReadAll(selectReader(bytes.NewReader(data), enc))
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// isArchiveFile checks file signature, extension does not matter.
func isArchiveFile(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	// 262 bytes is enough for any signature filetype knows about
	header := make([]byte, 262)
	n, err := io.ReadFull(file, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return filetype.Is(header[:n], "zip"), nil
}
