package weather

import (
	"fmt"
	"time"
)

// Coordinates identifies the point we poll. Lat/Lon are decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key returns a canonical string key for logs.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// GeoPoint is the document's coord block.
type GeoPoint struct {
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
}

// Condition is one entry of the provider's "weather" list.
type Condition struct {
	ID          *int    `json:"id,omitempty"`
	Main        *string `json:"main,omitempty"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
}

// Wind is the provider's wind block.
type Wind struct {
	Speed *float64 `json:"speed,omitempty"`
	Deg   *int     `json:"deg,omitempty"`
	Gust  *float64 `json:"gust,omitempty"`
}

// Clouds is the provider's cloud cover block.
type Clouds struct {
	All *int `json:"all,omitempty"`
}

// Precipitation holds rain or snow volume for the last 1h and 3h, in mm.
type Precipitation struct {
	OneHour    *float64 `json:"1h,omitempty"`
	ThreeHours *float64 `json:"3h,omitempty"`
}

// DataPoints is the measurement block of a Document.
type DataPoints struct {
	Temp      *float64 `json:"temp,omitempty"`
	FeelsLike *float64 `json:"feels_like,omitempty"`
	TempMin   *float64 `json:"temp_min,omitempty"`
	TempMax   *float64 `json:"temp_max,omitempty"`
	Pressure  *int     `json:"pressure,omitempty"`
	Humidity  *int     `json:"humidity,omitempty"`
	SeaLevel  *int     `json:"sea_level,omitempty"`
	GrndLevel *int     `json:"grnd_level,omitempty"`

	Wind       *Wind          `json:"wind,omitempty"`
	Visibility *int           `json:"visibility,omitempty"`
	Clouds     *Clouds        `json:"clouds,omitempty"`
	Rain       *Precipitation `json:"rain,omitempty"`
	Snow       *Precipitation `json:"snow,omitempty"`
}

// Document is one weather observation as written to the index.
// It carries no identity: every cycle appends a new document.
//
// Every member is optional: a field the provider did not send is not
// written, and one it sent (even empty, like "sys": {}) is written as is.
type Document struct {
	Coord      *GeoPoint      `json:"coord,omitempty"`
	Weather    []Condition    `json:"weather,omitzero"`
	Base       *string        `json:"base,omitempty"`
	DataPoints DataPoints     `json:"dataPoints"`
	Dt         *int64         `json:"dt,omitempty"` // unix seconds
	Sys        map[string]any `json:"sys,omitzero"`
	Timezone   *int           `json:"timezone,omitempty"`
	ID         *int64         `json:"id,omitempty"`
	Cod        *int           `json:"cod,omitempty"`
	Name       *string        `json:"name,omitempty"`
}

// ObservedAt returns dt as a UTC time, or false when the provider sent none.
func (d Document) ObservedAt() (time.Time, bool) {
	if d.Dt == nil {
		return time.Time{}, false
	}
	return time.Unix(*d.Dt, 0).UTC(), true
}

// IndexAck is the datastore's acknowledgement of a document write.
type IndexAck struct {
	Index   string `json:"index"`
	ID      string `json:"id"`
	Version int64  `json:"version"`
	Result  string `json:"result"`
}
