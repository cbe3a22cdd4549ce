package lotto645

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTicket(t *testing.T) {
	testCases := []struct {
		name    string
		mode    Mode
		numbers []int
		want    []int
		wantErr bool
	}{
		{name: "auto", mode: ModeAuto},
		{name: "auto with numbers", mode: ModeAuto, numbers: []int{1}, wantErr: true},
		{name: "manual sorted", mode: ModeManual, numbers: []int{45, 3, 1, 22, 9, 10}, want: []int{1, 3, 9, 10, 22, 45}},
		{name: "manual short", mode: ModeManual, numbers: []int{1, 2, 3}, wantErr: true},
		{name: "manual duplicate", mode: ModeManual, numbers: []int{1, 1, 2, 3, 4, 5}, wantErr: true},
		{name: "manual out of range", mode: ModeManual, numbers: []int{0, 1, 2, 3, 4, 5}, wantErr: true},
		{name: "manual above range", mode: ModeManual, numbers: []int{46, 1, 2, 3, 4, 5}, wantErr: true},
		{name: "semi auto one", mode: ModeSemiAuto, numbers: []int{7}, want: []int{7}},
		{name: "semi auto five", mode: ModeSemiAuto, numbers: []int{5, 4, 3, 2, 1}, want: []int{1, 2, 3, 4, 5}},
		{name: "semi auto empty", mode: ModeSemiAuto, wantErr: true},
		{name: "semi auto six", mode: ModeSemiAuto, numbers: []int{1, 2, 3, 4, 5, 6}, wantErr: true},
		{name: "unknown mode", mode: Mode(9), wantErr: true},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			ticket, err := NewTicket(test.mode, test.numbers)
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.mode, ticket.Mode())
			require.Equal(t, len(test.want), len(ticket.Numbers()))
			if len(test.want) > 0 {
				require.Equal(t, test.want, ticket.Numbers())
			}
		})
	}
}

func TestTicketIsImmutable(t *testing.T) {
	input := []int{6, 5, 4, 3, 2, 1}
	ticket, err := NewTicket(ModeManual, input)
	require.NoError(t, err)

	input[0] = 40
	numbers := ticket.Numbers()
	numbers[0] = 40
	require.Equal(t, []int{1, 2, 3, 4, 5, 6}, ticket.Numbers())
}

func TestParseTicket(t *testing.T) {
	testCases := []struct {
		input   string
		mode    Mode
		wantErr bool
	}{
		{input: "", mode: ModeAuto},
		{input: "auto", mode: ModeAuto},
		{input: "1,2,3,4,5,6", mode: ModeManual},
		{input: " 1, 2 ,3 ", mode: ModeSemiAuto},
		{input: "1,a,3", wantErr: true},
		{input: "1,2,3,4,5,6,7", wantErr: true},
	}
	for _, test := range testCases {
		t.Run(test.input, func(t *testing.T) {
			ticket, err := ParseTicket(test.input)
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.mode, ticket.Mode())
		})
	}
}

func TestParseSlots(t *testing.T) {
	slots, err := ParseSlots([]string{"A|01|02|04|27|39|443", "B|11|23|25|27|28|451"})
	require.NoError(t, err)
	require.Equal(t, []Slot{
		{Slot: "A", Mode: "자동", Numbers: []string{"01", "02", "04", "27", "39", "44"}},
		{Slot: "B", Mode: "수동", Numbers: []string{"11", "23", "25", "27", "28", "45"}},
	}, slots)

	_, err = ParseSlots([]string{"garbage"})
	require.Error(t, err)
}
