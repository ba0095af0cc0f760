package valid

import (
	"time"

	"github.com/google/uuid"

	"github.com/prefkit/prefkit"
)

// Theme is an enum: its constants are exactly 0..2.
type Theme int32

const (
	ThemeLight Theme = iota
	ThemeDark
	ThemeAuto
)

// Level is not an enum: its constants skip 1.
type Level int

const (
	LevelLow  Level = 0
	LevelHigh Level = 2
)

// Point implements binary marshaling on its pointer only.
type Point struct{ X, Y int32 }

func (p *Point) MarshalBinary() ([]byte, error) { return []byte{byte(p.X), byte(p.Y)}, nil }

func (p *Point) UnmarshalBinary(b []byte) error {
	p.X, p.Y = int32(b[0]), int32(b[1])
	return nil
}

// Date is stored through a converter.
type Date struct{ time.Time }

const defaultRetries = 3

// Retries is the exported default retry count.
const Retries = defaultRetries

//prefkit:schema id=general name=settings expire=24h crypt="s3cr3t key"
type GeneralSettings struct {
	Theme        Theme               `default:"ThemeAuto"`
	CheckUpdates bool                `default:"true"`
	Retries      int32               `default:"Retries"`
	DeviceID     string              `default:"uuid.NewString()" prefkit:"persist"`
	Tags         prefkit.Set[string] `default:"prefkit.NewSet[string]()" prefkit:"key=tag_set"`
	Origin       *Point              `default:"nil"`
	Level        Level               `default:"LevelHigh"`
	LastSync     Date                `default:"Date{}"`
	Blob         []byte              `default:"nil"`
	Enabled      *bool               `default:"nil"`
}

// Window is a plain schema with defaults only.
//
//prefkit:schema
type Window struct {
	Width  int32   `default:"800"`
	Height int32   `default:"600"`
	Scale  float64 `default:"1.0"`
}

//prefkit:converters
type Converters struct{}

func (Converters) DateToLong(d Date) int64 { return d.UnixMilli() }
func (Converters) LongToDate(v int64) Date { return Date{time.UnixMilli(v)} }
func (Converters) unexported(v int64) Date { return Date{} }

// JSONConverters carries state and is supplied by the caller.
//
//prefkit:converters
type JSONConverters struct {
	Indent string
}

func (c *JSONConverters) PointsToBytes(p []Point) []byte { return nil }
func (c *JSONConverters) BytesToPoints(b []byte) []Point { return nil }

// Plain has no directive and is ignored.
type Plain struct {
	Name string
}

var _ = uuid.Nil
