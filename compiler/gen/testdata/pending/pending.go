package pending

//prefkit:schema
type Pending struct {
	Ready   bool        `default:"false"`
	Profile GeneratedID `default:"GeneratedID{}"`
}

//prefkit:schema
type Ready struct {
	Done bool `default:"true"`
}
