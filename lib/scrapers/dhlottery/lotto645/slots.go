package lotto645

import (
	"fmt"
	"strings"
)

// Slot is one purchased line as reported back by the site.
type Slot struct {
	Slot    string   `json:"slot"`
	Mode    string   `json:"mode"`
	Numbers []string `json:"numbers"`
}

var slotModes = map[byte]string{
	'1': "수동",
	'2': "반자동",
	'3': "자동",
}

// ParseSlots reads lines of the form "A|01|02|04|27|39|443", the last
// character being the mode code.
func ParseSlots(lines []string) ([]Slot, error) {
	slots := make([]Slot, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) < 4 || line[1] != '|' {
			return nil, fmt.Errorf("malformed slot line %q", line)
		}
		code := line[len(line)-1]
		mode, ok := slotModes[code]
		if !ok {
			mode = string(code)
		}
		slots = append(slots, Slot{
			Slot:    line[:1],
			Mode:    mode,
			Numbers: strings.Split(line[2:len(line)-1], "|"),
		})
	}
	return slots, nil
}
