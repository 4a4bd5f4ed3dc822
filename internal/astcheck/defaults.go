package astcheck

// DefaultRegistry returns a Registry pre-loaded with all built-in checks.
// Registration order breaks ties between violations at the same position.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(func() Check { return NewNestedIfDepth() })
	r.Register(func() Check { return NewNestedTryDepth() })
	r.Register(func() Check { return NewArrayTrailingComma() })
	r.Register(func() Check { return NewNoTrailingComma() })
	r.Register(func() Check { return &DoubleBraceInitialization{} })
	r.Register(func() Check { return &OutdatedAPI{} })
	r.Register(func() Check { return &RedundantTypeArguments{} })
	r.Register(func() Check { return &MethodLength{maxLines: defaultMaxLines} })
	r.Register(func() Check { return &ParameterNumber{maxParams: defaultMaxParams} })
	r.Register(func() Check { return &EmptyCatchBlock{} })
	return r
}
