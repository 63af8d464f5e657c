package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Order codes are human-readable and date-sequenced: ORD-YYYYMMDD-NNNN,
// where NNNN restarts at 0001 each calendar day.  The next sequence for a
// day is computed under the same transaction that inserts the order, so two
// simultaneous purchases can never mint the same code; a UNIQUE index on
// orders.order_code backstops the invariant.

const orderCodeDayLayout = "20060102"

// FormatOrderCode renders the code for a day and sequence number.
func FormatOrderCode(day time.Time, seq int) string {
	return fmt.Sprintf("ORD-%s-%04d", day.UTC().Format(orderCodeDayLayout), seq)
}

// orderCodeDayPattern is the LIKE pattern matching all codes of a day.
func orderCodeDayPattern(day time.Time) string {
	return "ORD-" + day.UTC().Format(orderCodeDayLayout) + "-%"
}

// ParseOrderCodeSequence extracts the daily sequence number from a code.
func ParseOrderCodeSequence(code string) (int, error) {
	i := strings.LastIndexByte(code, '-')
	if i < 0 || i == len(code)-1 {
		return 0, fmt.Errorf("malformed order code %q", code)
	}
	seq, err := strconv.Atoi(code[i+1:])
	if err != nil {
		return 0, fmt.Errorf("malformed order code %q: %w", code, err)
	}
	return seq, nil
}

// NextOrderCode returns the code following lastCode for the given day.  An
// empty lastCode (first order of the day) yields sequence 0001.
func NextOrderCode(day time.Time, lastCode string) (string, error) {
	if lastCode == "" {
		return FormatOrderCode(day, 1), nil
	}
	seq, err := ParseOrderCodeSequence(lastCode)
	if err != nil {
		return "", err
	}
	return FormatOrderCode(day, seq+1), nil
}
