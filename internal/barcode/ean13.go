package barcode

import (
	"errors"
	"fmt"
	"strings"
)

const (
	PayloadLength = 12
	CodeLength    = 13
	PatternBits   = 95

	CompanyPrefix = "290"
	MaxEntityID   = 999_999_999
)

var (
	ErrInvalidCode  = errors.New("invalid ean13 code")
	ErrIDOutOfRange = errors.New("entity id does not fit ean13 payload")
)

var leftOdd = [10]string{
	"0001101", "0011001", "0010011", "0111101", "0100011",
	"0110001", "0101111", "0111011", "0110111", "0001011",
}

var leftEven = [10]string{
	"0100111", "0110011", "0011011", "0100001", "0011101",
	"0111001", "0000101", "0010001", "0001001", "0010111",
}

var rightSide = [10]string{
	"1110010", "1100110", "1101100", "1000010", "1011100",
	"1001110", "1010000", "1000100", "1001000", "1110100",
}

var leftParity = [10]string{
	"LLLLLL", "LLGLGG", "LLGGLG", "LLGGGL", "LGLLGG",
	"LGGLLG", "LGGGLL", "LGLGLG", "LGLGGL", "LGGLGL",
}

type BitPattern [PatternBits]uint8

func (p BitPattern) String() string {
	var b strings.Builder
	b.Grow(PatternBits)
	for _, bit := range p {
		if bit == 1 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func Checksum(payload string) (int, error) {
	digits, ok := digitsOf(payload)
	if !ok || len(digits) != PayloadLength {
		return 0, ErrInvalidCode
	}
	return checksumOf(digits), nil
}

func checksumOf(digits []int) int {
	total := 0
	for i, d := range digits[:PayloadLength] {
		if i%2 == 0 {
			total += d
		} else {
			total += d * 3
		}
	}
	return (10 - total%10) % 10
}

func Valid(code string) bool {
	digits, ok := digitsOf(code)
	if !ok || len(digits) != CodeLength {
		return false
	}
	return checksumOf(digits[:PayloadLength]) == digits[PayloadLength]
}

func Generate(entityID int64) (string, error) {
	if entityID < 1 || entityID > MaxEntityID {
		return "", fmt.Errorf("%w: %d", ErrIDOutOfRange, entityID)
	}

	payload := fmt.Sprintf("%s%09d", CompanyPrefix, entityID)
	digits, _ := digitsOf(payload)
	return fmt.Sprintf("%s%d", payload, checksumOf(digits)), nil
}

func Encode(code string) (BitPattern, error) {
	var pattern BitPattern
	if !Valid(code) {
		return pattern, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}

	digits, _ := digitsOf(code)
	parity := leftParity[digits[0]]

	pos := writeBits(&pattern, 0, "101")
	for i, d := range digits[1:7] {
		if parity[i] == 'L' {
			pos = writeBits(&pattern, pos, leftOdd[d])
		} else {
			pos = writeBits(&pattern, pos, leftEven[d])
		}
	}
	pos = writeBits(&pattern, pos, "01010")
	for _, d := range digits[7:] {
		pos = writeBits(&pattern, pos, rightSide[d])
	}
	writeBits(&pattern, pos, "101")

	return pattern, nil
}

func writeBits(pattern *BitPattern, pos int, bits string) int {
	for i := 0; i < len(bits); i++ {
		if bits[i] == '1' {
			pattern[pos+i] = 1
		}
	}
	return pos + len(bits)
}

func digitsOf(s string) ([]int, bool) {
	if s == "" {
		return nil, false
	}

	digits := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return nil, false
		}
		digits[i] = int(c - '0')
	}
	return digits, true
}
