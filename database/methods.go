package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func (s *State) Update(nextIndex, lastIndex uint64) {
	s.NextDBIndex = nextIndex
	s.LastChainIndex = lastIndex
	s.Updated = time.Now()
}

// EncodeNumbers renders drawn numbers as a comma-separated list in the
// given order, e.g. "3,11,19,27,41".
func EncodeNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// DecodeNumbers parses a comma-separated list of numbers. An empty
// string decodes to nil.
func DecodeNumbers(s string) ([]int, error) {
	if len(s) == 0 {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	numbers := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", part)
		}
		numbers[i] = n
	}
	return numbers, nil
}

func (d *Draw) Numbers() ([]int, error) {
	return DecodeNumbers(d.WinningNumbers)
}

func (t *DrawTransaction) Numbers() ([]int, error) {
	return DecodeNumbers(t.WinningNumbers)
}

func (t *Ticket) PickedNumbers() ([]int, error) {
	return DecodeNumbers(t.Numbers)
}
