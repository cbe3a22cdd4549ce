package lotto645

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type Mode int

const (
	ModeAuto Mode = iota
	ModeManual
	ModeSemiAuto
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "AUTO"
	case ModeManual:
		return "MANUAL"
	case ModeSemiAuto:
		return "SEMI_AUTO"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Korean returns the label the site uses for the mode.
func (m Mode) Korean() string {
	switch m {
	case ModeAuto:
		return "자동"
	case ModeManual:
		return "수동"
	case ModeSemiAuto:
		return "반자동"
	}
	return m.String()
}

// genType is the purchase form's code for the mode.
func (m Mode) genType() string {
	switch m {
	case ModeManual:
		return "1"
	case ModeSemiAuto:
		return "2"
	}
	return "0"
}

const (
	MinNumber = 1
	MaxNumber = 45
	// numbers on one line
	LineSize = 6
	// tickets in one purchase
	MaxTickets = 5
	// won per line
	TicketPrice = 1000
)

// Ticket is one line of a purchase. it can only be built through
// NewTicket or ParseTicket and is never mutated afterwards.
type Ticket struct {
	mode    Mode
	numbers []int
}

func (t Ticket) Mode() Mode {
	return t.mode
}

func (t Ticket) Numbers() []int {
	return slices.Clone(t.numbers)
}

func (t Ticket) String() string {
	if t.mode == ModeAuto {
		return t.mode.Korean()
	}
	return fmt.Sprintf("%s %s", t.mode.Korean(), joinNumbers(t.numbers))
}

func joinNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// NewTicket validates `numbers` against `mode`, the stored numbers are
// sorted ascending.
func NewTicket(mode Mode, numbers []int) (Ticket, error) {
	sorted := slices.Clone(numbers)
	slices.Sort(sorted)

	switch mode {
	case ModeAuto:
		if len(sorted) != 0 {
			return Ticket{}, fmt.Errorf("자동 모드에서는 번호를 지정할 수 없습니다")
		}
	case ModeManual:
		if len(sorted) != LineSize {
			return Ticket{}, fmt.Errorf("수동 모드는 번호 %d개가 필요합니다 (got %d)", LineSize, len(sorted))
		}
	case ModeSemiAuto:
		if len(sorted) < 1 || len(sorted) >= LineSize {
			return Ticket{}, fmt.Errorf("반자동 모드는 번호 1~%d개가 필요합니다 (got %d)", LineSize-1, len(sorted))
		}
	default:
		return Ticket{}, fmt.Errorf("올바르지 않은 모드입니다. (mode: %v)", mode)
	}

	for i, n := range sorted {
		if n < MinNumber || n > MaxNumber {
			return Ticket{}, fmt.Errorf("번호는 %d~%d 사이여야 합니다 (got %d)", MinNumber, MaxNumber, n)
		}
		if i > 0 && sorted[i-1] == n {
			return Ticket{}, fmt.Errorf("중복된 번호가 있습니다 (%d)", n)
		}
	}
	return Ticket{mode: mode, numbers: sorted}, nil
}

// ParseTicket reads the comma separated form used by the cli and web
// api. an empty string is an automatic line, six numbers a manual line,
// anything in between semi automatic.
func ParseTicket(s string) (Ticket, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "auto") {
		return NewTicket(ModeAuto, nil)
	}

	var numbers []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Ticket{}, fmt.Errorf("invalid number %q", part)
		}
		numbers = append(numbers, n)
	}
	if len(numbers) == LineSize {
		return NewTicket(ModeManual, numbers)
	}
	return NewTicket(ModeSemiAuto, numbers)
}
