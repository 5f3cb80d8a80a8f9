package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// AccessibilityScores rates a course from 0 to 100 per mobility type.
type AccessibilityScores struct {
	RacingChair  int `json:"racing_chair"`
	DayChair     int `json:"day_chair"`
	OffRoadChair int `json:"off_road_chair"`
	Handbike     int `json:"handbike"`
	FrameRunner  int `json:"frame_runner"`
	WalkingFrame int `json:"walking_frame"`
	Crutches     int `json:"crutches"`
	WalkingStick int `json:"walking_stick"`
}

func (s AccessibilityScores) Value() (driver.Value, error) {
	b, err := sonic.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *AccessibilityScores) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = AccessibilityScores{}
		return nil
	case []byte:
		return sonic.Unmarshal(v, s)
	case string:
		return sonic.UnmarshalString(v, s)
	default:
		return fmt.Errorf("cannot scan %T into AccessibilityScores", value)
	}
}

type Parkrun struct {
	UID           int64               `json:"uid" gorm:"primaryKey;autoIncrement:false"`
	ShortName     string              `json:"short_name"`
	LongName      string              `json:"long_name" gorm:"not null"`
	Slug          string              `json:"slug" gorm:"uniqueIndex;not null"`
	Location      string              `json:"location"`
	Longitude     float64             `json:"longitude"`
	Latitude      float64             `json:"latitude"`
	Country       string              `json:"country" gorm:"index"`
	IsJunior      bool                `json:"is_junior"`
	CoursePageURL string              `json:"course_page_url"`
	GoogleMapsURL string              `json:"google_maps_url"`
	Postcode      string              `json:"postcode"`
	Language      string              `json:"language"`
	Description   string              `json:"description" gorm:"type:text"`
	Scores        AccessibilityScores `json:"scores" gorm:"type:jsonb"`
	UpdatedAt     time.Time           `json:"updated_at"`
}
