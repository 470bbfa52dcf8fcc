// Package profile is the user profile record: its fields, its entry codec
// and its access policy.
package profile

import (
	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/feed"
)

var (
	// Namespace holds the profile's own fields.
	Namespace = feed.Namespace{Prefix: "p", URI: "urn:beanfeed:profile:1"}
	// VCardNamespace holds the fields borrowed from vCard.
	VCardNamespace = feed.Namespace{Prefix: "vc", URI: "urn:ietf:params:xml:ns:vcard-4.0"}
)

// Profile is a user profile. Email identifies the owner.
type Profile struct {
	bean.Meta

	Email       string `cbor:"email"`
	DisplayName string `cbor:"display_name"`

	Locale   string `cbor:"locale"`
	TimeZone string `cbor:"tz"`

	Bio      string `cbor:"bio"`
	Website  string `cbor:"website"`
	Verified bool   `cbor:"verified"`

	BirthYear int    `cbor:"birth_year"`
	AvatarURL string `cbor:"avatar_url"`
	Phone     string `cbor:"phone"`
}

// New returns an unsaved profile owned by email.
func New(email string) *Profile {
	return &Profile{Email: email}
}

// Owner returns the principal name that owns p.
func Owner(p *Profile) string {
	return p.Email
}
