package prefkit

// Updater is implemented by every generated <Schema>Preferences facade.
type Updater[T any, M any] interface {
	Get() T
	Mutable() M
	Update(M) error
}

// Update starts a change set on p, passes it to fn and applies it.
//
//	err := prefkit.Update[*model.GeneralSettings](factory.Settings(), func(m prefs.MutableGeneralSettings) {
//		m.SetCheckUpdates(false)
//	})
func Update[T any, M any](p Updater[T, M], fn func(M)) error {
	m := p.Mutable()
	fn(m)
	return p.Update(m)
}
