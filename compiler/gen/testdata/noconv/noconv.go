package noconv

// Level is not an enum: its constants skip 1.
type Level int

const (
	LevelLow  Level = 0
	LevelHigh Level = 2
)

//prefkit:schema
type Limits struct {
	Level Level `default:"LevelHigh"`
	Max   int32 `default:"10"`
}
