package domain

// Person is the result of a national ID lookup.
type Person struct {
	NationalID string `json:"nationalId"`
	Names      string `json:"names"`
	LastNames  string `json:"lastNames"`
}

// FullName joins names and last names.
func (p Person) FullName() string {
	switch {
	case p.Names == "":
		return p.LastNames
	case p.LastNames == "":
		return p.Names
	default:
		return p.Names + " " + p.LastNames
	}
}
