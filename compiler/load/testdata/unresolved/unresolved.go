package unresolved

//prefkit:schema
type Pending struct {
	Ready   bool        `default:"false"`
	Profile GeneratedID `default:"GeneratedID{}"`
}
