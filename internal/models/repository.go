package models

// StatusFilename is the list filename of the synthetic source backed by the dpkg status file
const StatusFilename = "status"

// Source is one (repository URL, distribution, component) entry of a sources list
type Source struct {
	ListFile  string // sources list the entry was read from
	EntryLine string

	URL       string // repository base with scheme and trailing slash
	Link      string // remote location of the Packages index
	Filename  string // flattened local cache filename
	Release   string // distribution / codename
	Component string
	Origin    string // host part of the URL
	OriginURL string // repository base without scheme, slashes replaced by dashes

	Priority   int
	Constraint *Constraint
}

// NewStatusSource returns the synthetic source that scans the installed-package snapshot
func NewStatusSource() *Source {
	return &Source{Filename: StatusFilename}
}

// IsStatus reports whether the source is the dpkg status snapshot
func (s *Source) IsStatus() bool {
	return s.Filename == StatusFilename
}

// Constraint is a pin read from an apt preferences stanza
type Constraint struct {
	Packages []string

	PinRelease   string // a=
	PinOrigin    string // o=
	PinComponent string // c=
	PinOriginURL string // Pin: origin
	PinVersion   string // Pin: version

	Priority int
}
