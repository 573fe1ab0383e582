package domain

// Baz is a record served by the remote baz service.
type Baz struct {
	Foo    string `json:"foo"`
	Mukluk int    `json:"mukluk"`
}

// IsIndeed reports whether the baz has accumulated more than five mukluks.
func (b Baz) IsIndeed() bool {
	return b.Mukluk > 5
}
