package util

// Helper for applying functional options to a config struct. The constraint
// accepts named option types whose underlying type is func(C) C.
func ApplyOpts[O ~func(C) C, C any](opts []O, cfg C) C {
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	return cfg
}
