package placement

var renameFunc = renameNoReplace

// SetRenameForTests overrides the rename primitive used by moves.
func SetRenameForTests(fn func(string, string) error) func() {
	previous := renameFunc
	renameFunc = fn
	return func() {
		renameFunc = previous
	}
}
