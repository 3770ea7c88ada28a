package auth

// Domain is an authority domain. It decides which entry and home pages
// a request belongs to and which identity in the session is consulted.
type Domain string

const (
	DomainUser  Domain = "user"
	DomainAdmin Domain = "admin"
)

// EntryPage is where unauthenticated requests are sent.
func (d Domain) EntryPage() string {
	if d == DomainAdmin {
		return "/admin"
	}
	return "/"
}

// LoginPage is where a rejected login attempt lands.
func (d Domain) LoginPage() string {
	if d == DomainAdmin {
		return "/admin"
	}
	return "/login"
}

// HomePage is where authenticated visitors to anonymous-only pages are sent.
func (d Domain) HomePage() string {
	if d == DomainAdmin {
		return "/admin/home"
	}
	return "/home"
}

func (d Domain) Valid() bool {
	return d == DomainUser || d == DomainAdmin
}

func (d Domain) String() string {
	return string(d)
}
