package ataxx

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidFEN = errors.New("invalid FEN")

// Encode: rows y=0..9 joined by '/', x = A, o = B, runs of empties as decimal numbers,
// then a space and the side to move.
func (p *Position) Encode() string {
	var sb strings.Builder
	for y := 0; y < Size; y++ {
		if y > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for x := 0; x < Size; x++ {
			c := p.cells[x][y]
			if c == Empty {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteByte(cellChar(c))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
	}
	sb.WriteByte(' ')
	sb.WriteByte(cellChar(p.turn))
	return sb.String()
}

func cellChar(c Cell) byte {
	switch c {
	case PlayerA:
		return 'x'
	case PlayerB:
		return 'o'
	default:
		return '.'
	}
}

func charCell(ch byte) (Cell, bool) {
	switch ch {
	case 'x', 'X':
		return PlayerA, true
	case 'o', 'O':
		return PlayerB, true
	default:
		return Empty, false
	}
}

func DecodePosition(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) != 2 {
		return nil, ErrInvalidFEN
	}
	rows := strings.Split(parts[0], "/")
	if len(rows) != Size {
		return nil, ErrInvalidFEN
	}

	p := NewPosition()
	for y, row := range rows {
		x := 0
		for i := 0; i < len(row); {
			ch := row[i]
			if ch >= '0' && ch <= '9' {
				j := i
				for j < len(row) && row[j] >= '0' && row[j] <= '9' {
					j++
				}
				n, err := strconv.Atoi(row[i:j])
				if err != nil || n == 0 || n > Size-x {
					return nil, ErrInvalidFEN
				}
				x += n
				i = j
				continue
			}
			if ch == '.' {
				if x >= Size {
					return nil, ErrInvalidFEN
				}
				x++
				i++
				continue
			}
			c, ok := charCell(ch)
			if !ok || x >= Size {
				return nil, ErrInvalidFEN
			}
			p.cells[x][y] = c
			x++
			i++
		}
		if x != Size {
			return nil, ErrInvalidFEN
		}
	}

	if len(parts[1]) != 1 {
		return nil, ErrInvalidFEN
	}
	turn, ok := charCell(parts[1][0])
	if !ok {
		return nil, ErrInvalidFEN
	}
	p.turn = turn
	return p, nil
}
