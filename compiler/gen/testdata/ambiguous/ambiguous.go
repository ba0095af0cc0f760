package ambiguous

import "time"

//prefkit:schema
type Clock struct {
	Tick time.Duration `default:"time.Second"`
}

//prefkit:converters
type Millis struct{}

func (Millis) ToLong(d time.Duration) int64   { return d.Milliseconds() }
func (Millis) FromLong(v int64) time.Duration { return time.Duration(v) * time.Millisecond }

//prefkit:converters
type Nanos struct{}

func (Nanos) ToLong(d time.Duration) int64   { return int64(d) }
func (Nanos) FromLong(v int64) time.Duration { return time.Duration(v) }
