package parkeeractie

import "time"

// these mirror what the portal's own client sends, their meaning is unknown
// so they are passed through unchanged.
const (
	opaqueUserId   = 1
	opaqueGarageId = 0
)

// startSessionRequest mirrors the shape of the body the portal's own
// javascript posts to StartParkingSession. Only a few fields are specific to
// a request, the rest are the defaults the portal sends for a new session.
type startSessionRequest struct {
	Id                     int     `json:"id"`
	UserId                 int     `json:"userId"`
	GarageId               int     `json:"garageId"`
	PermitId               any     `json:"permitId"`
	PermitProductId        any     `json:"permitProductId"`
	Lp                     string  `json:"lp"`
	LpName                 *string `json:"lpName"`
	LpId                   *int    `json:"lpId"`
	TimeStartUtc           string  `json:"timeStartUtc"`
	TimeEndUtc             string  `json:"timeEndUtc"`
	RegimeTimeStartUtc     string  `json:"regimeTimeStartUtc"`
	RegimeTimeEndUtc       string  `json:"regimeTimeEndUtc"`
	ZoneCode               *string `json:"zoneCode"`
	ZoneName               *string `json:"zoneName"`
	Status                 string  `json:"status"`
	SessionType            string  `json:"sessionType"`
	Costs                  float64 `json:"costs"`
	CostsPerHour           float64 `json:"costsPerHour"`
	TimeUsedInMinutes      int     `json:"timeUsedInMinutes"`
	IsPaid                 bool    `json:"isPaid"`
	IsCancelled            bool    `json:"isCancelled"`
	IsStopped              bool    `json:"isStopped"`
	IsFavorite             bool    `json:"isFavorite"`
	IsRecurring            bool    `json:"isRecurring"`
	RecurringDays          []int   `json:"recurringDays"`
	VisitorName            *string `json:"visitorName"`
	Remarks                *string `json:"remarks"`
	ExternalReference      *string `json:"externalReference"`
	SendConfirmationEmail  bool    `json:"sendConfirmationEmail"`
	SendConfirmationSms    bool    `json:"sendConfirmationSms"`
	PhoneNumber            *string `json:"phoneNumber"`
	Email                  *string `json:"email"`
	Notifications          []any   `json:"notifications"`
	ValidationErrorMessage *string `json:"validationErrorMessage"`
}

func newStartSessionRequest(permit Permit, licensePlate, endTime string, now time.Time, location *time.Location) startSessionRequest {
	productId := permit.PermitProductId
	if productId == nil {
		productId = defaultPermitProductId
	}

	today := now.In(location)
	regimeStart := time.Date(today.Year(), today.Month(), today.Day(), regimeStartHour, 0, 0, 0, location)
	regimeEnd := time.Date(today.Year(), today.Month(), today.Day(), regimeEndHour, 0, 0, 0, location)

	return startSessionRequest{
		UserId:             opaqueUserId,
		GarageId:           opaqueGarageId,
		PermitId:           permit.Id,
		PermitProductId:    productId,
		Lp:                 NormalizeLicensePlate(licensePlate),
		TimeStartUtc:       formatUtc(now.Truncate(time.Minute)),
		TimeEndUtc:         endTimeUtc(normalizeEndTime(endTime)),
		RegimeTimeStartUtc: formatUtc(regimeStart),
		RegimeTimeEndUtc:   formatUtc(regimeEnd),
		Status:             "New",
		SessionType:        "Permit",
		RecurringDays:      []int{},
		Notifications:      []any{},
	}
}
