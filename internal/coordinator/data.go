package coordinator

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Reason explains why the account has a parking problem.
type Reason string

const (
	ReasonNoMoney Reason = "geen_geld"
	ReasonNoTime  Reason = "geen_tijd"
	ReasonNone    Reason = "geen"
)

const zeroTime = "00:00:00"

// Data is the account state as of UpdatedAt, absent fields are nil.
type Data struct {
	Saldo       *float64  `json:"saldo"`
	CurrentTime *string   `json:"current_time"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func clockSeconds(raw string) (int, bool) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return 0, false
	}
	var values [3]int
	for i, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil {
			return 0, false
		}
		values[i] = value
	}
	return values[0]*3600 + values[1]*60 + values[2], true
}

// TimeApplicable reports whether CurrentTime holds a HH:MM:SS duration.
func (d Data) TimeApplicable() bool {
	if d.CurrentTime == nil {
		return false
	}
	_, ok := clockSeconds(*d.CurrentTime)
	return ok
}

func (d Data) TimeRemaining() time.Duration {
	if d.CurrentTime == nil {
		return 0
	}
	seconds, ok := clockSeconds(*d.CurrentTime)
	if !ok {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// TimeRemainingHours is the remaining time in hours rounded to 2 decimals, it
// is 0 when the time is not applicable.
func (d Data) TimeRemainingHours() float64 {
	return math.Round(d.TimeRemaining().Hours()*100) / 100
}

// RawTime is CurrentTime for display purposes.
func (d Data) RawTime() string {
	if d.CurrentTime == nil || *d.CurrentTime == "" {
		return zeroTime
	}
	return *d.CurrentTime
}

// Problem reports whether parking is impossible because the account has no
// money or no time left. Money takes precedence as the reason.
func (d Data) Problem() (bool, Reason) {
	if d.Saldo == nil || *d.Saldo <= 0 {
		return true, ReasonNoMoney
	}
	if d.CurrentTime == nil || *d.CurrentTime == zeroTime {
		return true, ReasonNoTime
	}
	return false, ReasonNone
}
