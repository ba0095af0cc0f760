package invalid

//prefkit:schema
type Generic[T any] struct {
	V T `default:"nil"`
}

//prefkit:schema
type NotStruct int

//prefkit:schema
type Alias = struct{}

//prefkit:schema
type unexported struct{}

//prefkit:schema
type MissingDefault struct {
	Name string
}

type Base struct{}

//prefkit:schema
type Embedded struct {
	Base `default:"Base{}"`
}

//prefkit:schema
type Hidden struct {
	name string `default:"\"x\""`
}

//prefkit:schema expire=soon
type BadExpire struct{}

//prefkit:schema color=red
type UnknownOption struct{}

//prefkit:schema
type DuplicateKey struct {
	A string `default:"\"a\"" prefkit:"key=same"`
	B string `default:"\"b\"" prefkit:"key=same"`
}

//prefkit:schema
type WrongDefault struct {
	Count int32 `default:"\"many\""`
}

var secret = 3

//prefkit:schema
type PrivateDefault struct {
	Count int `default:"secret"`
}

//prefkit:schema name=Dup
type First struct{}

//prefkit:schema name=dup
type Second struct{}

//prefkit:converters
type ConvAlias = int
