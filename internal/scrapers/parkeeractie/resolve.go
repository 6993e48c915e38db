package parkeeractie

import (
	"fmt"
)

// Snapshot is the result of a single fetch. Either field may be absent, if
// both are then the account is not logged in (or has no data).
type Snapshot struct {
	Saldo       *float64 `json:"saldo"`
	CurrentTime *string  `json:"current_time"`
}

// Resolved returns true if at least one field is present.
func (s Snapshot) Resolved() bool {
	return s.Saldo != nil || s.CurrentTime != nil
}

// timeFields are the keys under addItem that may hold the remaining time of
// an active session, in order of priority.
var timeFields = []string{
	"timeRemaining",
	"currentTime",
	"remainingTime",
	"tijd",
	"tijdResterend",
	"restTime",
}

// Resolve derives the saldo and remaining time from a customer payload.
//
// The remaining time is read from addItem when a parking session is active,
// otherwise it falls back to the unused timeBalance (in minutes) of the first
// active permit.
func Resolve(payload map[string]any) Snapshot {
	add, ok := payload["addItem"].(map[string]any)
	if !ok {
		return Snapshot{}
	}

	var snapshot Snapshot
	if saldo, ok := number(add["saldo"]); ok {
		snapshot.Saldo = &saldo
	}

	for _, field := range timeFields {
		value, ok := timeValue(add[field])
		if ok {
			snapshot.CurrentTime = &value
			return snapshot
		}
	}

	for _, permit := range Permits(payload) {
		if !permit.Active() || permit.TimeBalance == nil || *permit.TimeBalance <= 0 {
			continue
		}
		value := minutesToClock(int(*permit.TimeBalance))
		snapshot.CurrentTime = &value
		break
	}

	return snapshot
}

func minutesToClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d:00", minutes/60, minutes%60)
}

// timeValue treats null, empty strings, zero and false as absent.
func timeValue(v any) (string, bool) {
	switch value := v.(type) {
	case nil:
		return "", false
	case string:
		return value, value != ""
	case bool:
		return fmt.Sprint(value), value
	case float64:
		return fmt.Sprint(value), value != 0
	}
	return fmt.Sprint(v), true
}

func number(v any) (float64, bool) {
	value, ok := v.(float64)
	return value, ok
}

// Permit is a parking product attached to the account.
type Permit struct {
	Id              any
	Status          string
	TimeBalance     *float64
	PermitProductId any
}

func (p Permit) Active() bool {
	return p.Status == "Active"
}

// Permits returns the well-formed entries of payload.permitList in order.
func Permits(payload map[string]any) []Permit {
	list, ok := payload["permitList"].([]any)
	if !ok {
		return nil
	}

	var permits []Permit
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		permit := Permit{
			Id:              obj["id"],
			PermitProductId: obj["permitProductId"],
		}
		permit.Status, _ = obj["status"].(string)
		if balance, ok := number(obj["timeBalance"]); ok {
			permit.TimeBalance = &balance
		}
		permits = append(permits, permit)
	}
	return permits
}

// FirstActivePermit returns the first permit in list order with an Active
// status.
func FirstActivePermit(permits []Permit) (Permit, bool) {
	for _, p := range permits {
		if p.Active() {
			return p, true
		}
	}
	return Permit{}, false
}
