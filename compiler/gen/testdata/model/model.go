package model

import (
	"errors"
	"strings"
	"time"

	"github.com/prefkit/prefkit"
)

// Theme is stored by ordinal.
type Theme int32

const (
	ThemeLight Theme = iota
	ThemeDark
	ThemeAuto
)

// DefaultRetries is the default of GeneralSettings.Retries.
const DefaultRetries = 3

// Point implements binary marshaling on its pointer.
type Point struct{ X, Y int8 }

func (p *Point) MarshalBinary() ([]byte, error) {
	return []byte{byte(p.X), byte(p.Y)}, nil
}

func (p *Point) UnmarshalBinary(b []byte) error {
	if len(b) != 2 {
		return errors.New("model: invalid point")
	}
	p.X, p.Y = int8(b[0]), int8(b[1])
	return nil
}

//prefkit:schema id=general name=settings expire=24h crypt="s3cr3t key"
type GeneralSettings struct {
	Theme        Theme               `default:"ThemeAuto"`
	Accent       *Theme              `default:"nil"`
	CheckUpdates bool                `default:"true"`
	Retries      int32               `default:"DefaultRetries"`
	Volume       float32             `default:"0.5"`
	Ratio        float64             `default:"1.5"`
	Counter      int64               `default:"0"`
	DeviceID     string              `default:"\"unset\"" prefkit:"persist"`
	Nickname     *string             `default:"nil"`
	Tags         prefkit.Set[string] `default:"prefkit.NewSet(\"a\")" prefkit:"key=tag_set"`
	Origin       *Point              `default:"nil"`
	Home         Point               `default:"Point{X: 1, Y: 2}"`
	Timeout      time.Duration       `default:"5 * time.Second"`
	LastSync     time.Time           `default:"time.Time{}"`
	Enabled      *bool               `default:"nil"`
	Limit        *int64              `default:"nil"`
	Blob         []byte              `default:"nil"`
	Labels       []string            `default:"nil"`
}

// Window has defaults only.
//
//prefkit:schema
type Window struct {
	Width  int32 `default:"800"`
	Height int32 `default:"600"`
}

//prefkit:converters
type Converters struct{}

func (Converters) DurationToLong(d time.Duration) int64 { return int64(d) }

func (Converters) LongToDuration(v int64) time.Duration { return time.Duration(v) }

func (Converters) TimeToText(t time.Time) string { return t.Format(time.RFC3339Nano) }

func (Converters) TextToTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// LabelConverters joins labels with Sep.
//
//prefkit:converters
type LabelConverters struct {
	Sep string
}

func (c *LabelConverters) LabelsToText(v []string) *string {
	if v == nil {
		return nil
	}
	s := strings.Join(v, c.Sep)
	return &s
}

func (c *LabelConverters) TextToLabels(s *string) []string {
	if s == nil {
		return nil
	}
	return strings.Split(*s, c.Sep)
}
