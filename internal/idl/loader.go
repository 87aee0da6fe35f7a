package idl

// loader is the default LoadContext: it simply recurses into Load,
// giving every composite type a uniform way to reconstruct children
// without knowing about the factory registry itself.
type loader struct{}

func (loader) LoadChild(prefix string, props Properties) (Type, error) {
	return Load(prefix, props, loader{})
}

// DefaultLoader is the LoadContext used by top-level callers (tests,
// the CLI) to reconstruct a persisted type tree.
var DefaultLoader LoadContext = loader{}
