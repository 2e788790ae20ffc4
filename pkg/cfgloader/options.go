package cfgloader

// options controls loader behavior that spec.md §9 calls out as a
// historical convention rather than a fixed rule: the CDN rewrite applied
// to non-absolute people-image URLs.
type options struct {
	imageCDNBase string
}

// Option configures Load.
type Option func(*options)

// WithImageCDNBase sets the base URL non-absolute people-image paths are
// resolved against. Left empty, image URLs are passed through unchanged.
func WithImageCDNBase(base string) Option {
	return func(o *options) { o.imageCDNBase = base }
}
