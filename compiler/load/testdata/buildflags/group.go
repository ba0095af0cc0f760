//go:build !hidegroups

package buildflags

//prefkit:schema
type Group struct {
	Name string `default:"\"everyone\""`
}
