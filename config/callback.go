package config

// ConfigCallback collects functions to be called with the application
// config once it has been built. Packages register callbacks from their
// init functions; the binary's context calls Call after BuildConfig.
type ConfigCallback[C any] struct {
	callbacks []func(C)
}

func (cc *ConfigCallback[C]) AddCallback(f func(C)) {
	cc.callbacks = append(cc.callbacks, f)
}

func (cc *ConfigCallback[C]) Call(c C) {
	for _, f := range cc.callbacks {
		f(c)
	}
}
