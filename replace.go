package scopehost

// Replace swaps the provider registered for T, or registers it when T is
// unknown. The replacement keeps the registration position, hosted flag and,
// unless WithLifetime is given, the lifetime of the registration it replaces.
// Instances created before the call are not affected.
func Replace[T any](c *Container, provider Provider[T], opts ...ProviderOption) error {
	cfg := newProviderConfig(opts)
	key := keyFor[T](cfg)

	lifetime, hosted := cfg.lifetimeOr(Singleton), false
	if entry, ok := c.internal.Entry(key); ok {
		lifetime, hosted = cfg.lifetimeOr(entry.Lifetime), entry.Hosted
	}

	c.internal.Replace(key, adapt(c, provider), lifetime, hosted)
	return nil
}

func ReplaceValue[T any](c *Container, value T, opts ...ProviderOption) error {
	cfg := newProviderConfig(opts)
	key := keyFor[T](cfg)

	hosted := false
	if entry, ok := c.internal.Entry(key); ok {
		hosted = entry.Hosted
	}

	c.internal.ReplaceValue(key, value, hosted)
	return nil
}

func MustReplace[T any](c *Container, provider Provider[T], opts ...ProviderOption) {
	if err := Replace(c, provider, opts...); err != nil {
		panic(err)
	}
}

func MustReplaceValue[T any](c *Container, value T, opts ...ProviderOption) {
	if err := ReplaceValue(c, value, opts...); err != nil {
		panic(err)
	}
}
