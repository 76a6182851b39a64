package model

import (
	"fmt"
	"time"
)

// Window is the working-hours interval [StartHour, EndHour) on the 24h clock.
type Window struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:00-%02d:00", w.StartHour, w.EndHour)
}

// OvertimeEntry is one line of the overtime report.
type OvertimeEntry struct {
	Name string
	Age  string
	At   time.Time
}

// Line formats the entry the way the printed report expects it.
func (e OvertimeEntry) Line() string {
	return fmt.Sprintf("Nhân viên: %s, %s tuổi - Làm việc ngoài giờ lúc: %s", e.Name, e.Age, e.At.Format(time.TimeOnly))
}
