package profile

import (
	"strconv"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/feed"
)

type field struct {
	ns    feed.Namespace
	local string
	style bean.Style
}

func (f field) name() feed.QName {
	return feed.QName{Space: f.ns.URI, Local: f.local}
}

var (
	fEmail       = field{Namespace, "email", bean.Plain}
	fDisplayName = field{Namespace, "displayName", bean.Plain}
	fLocale      = field{VCardNamespace, "lang", bean.Short}
	fTimeZone    = field{VCardNamespace, "tz", bean.Short}
	fBio         = field{Namespace, "bio", bean.Long}
	fWebsite     = field{VCardNamespace, "url", bean.Long}
	fVerified    = field{Namespace, "verified", bean.Long}
	fBirthYear   = field{Namespace, "birthYear", bean.Full}
	fAvatarURL   = field{VCardNamespace, "photo", bean.Full}
	fPhone       = field{VCardNamespace, "tel", bean.Full}
)

// Codec maps profiles onto entries.
type Codec struct{}

var _ bean.Codec[*Profile] = Codec{}

func (Codec) Encode(p *Profile, asRoot bool, style bean.Style) *feed.Entry {
	e := &feed.Entry{Title: p.DisplayName, Root: asRoot}
	if e.Title == "" {
		e.Title = p.Email
	}
	bean.EncodeMeta(&p.Meta, e)

	put := func(f field, v string) {
		if style.Includes(f.style) {
			e.Put(f.ns, f.local, v)
		}
	}

	put(fEmail, p.Email)
	put(fDisplayName, p.DisplayName)
	put(fLocale, p.Locale)
	put(fTimeZone, p.TimeZone)
	put(fBio, p.Bio)
	put(fWebsite, p.Website)
	put(fVerified, strconv.FormatBool(p.Verified))
	put(fBirthYear, strconv.Itoa(p.BirthYear))
	put(fAvatarURL, p.AvatarURL)
	put(fPhone, p.Phone)

	return e
}

func (Codec) Decode(e *feed.Entry) *Profile {
	p := &Profile{}
	bean.DecodeMeta(e, &p.Meta)

	p.Email = bean.String(e, fEmail.name())
	p.DisplayName = bean.String(e, fDisplayName.name())
	p.Locale = bean.String(e, fLocale.name())
	p.TimeZone = bean.String(e, fTimeZone.name())
	p.Bio = bean.String(e, fBio.name())
	p.Website = bean.String(e, fWebsite.name())
	p.Verified = bean.Bool(e, fVerified.name())
	p.BirthYear = bean.Int(e, fBirthYear.name())
	p.AvatarURL = bean.String(e, fAvatarURL.name())
	p.Phone = bean.String(e, fPhone.name())

	return p
}
