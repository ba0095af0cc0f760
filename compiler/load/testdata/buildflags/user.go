package buildflags

//prefkit:schema
type User struct {
	Name string `default:"\"anonymous\""`
}
