package cli

import (
	"github.com/dmitrijs2005/beanfeed/internal/profile"
	"github.com/spf13/pflag"
)

// profileFlags binds the editable profile fields to command flags.
type profileFlags struct {
	email     string
	name      string
	locale    string
	timeZone  string
	bio       string
	website   string
	verified  bool
	birthYear int
	avatarURL string
	phone     string
}

func (f *profileFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.email, "email", "", "owner email")
	fs.StringVar(&f.name, "name", "", "display name")
	fs.StringVar(&f.locale, "locale", "", "language tag, e.g. en-GB")
	fs.StringVar(&f.timeZone, "tz", "", "IANA time zone")
	fs.StringVar(&f.bio, "bio", "", "short biography")
	fs.StringVar(&f.website, "website", "", "home page URL")
	fs.BoolVar(&f.verified, "verified", false, "verified flag")
	fs.IntVar(&f.birthYear, "birth-year", 0, "year of birth")
	fs.StringVar(&f.avatarURL, "avatar", "", "avatar URL")
	fs.StringVar(&f.phone, "phone", "", "phone number")
}

// apply copies the flags the user set onto p.
func (f *profileFlags) apply(fs *pflag.FlagSet, p *profile.Profile) {
	fs.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "email":
			p.Email = f.email
		case "name":
			p.DisplayName = f.name
		case "locale":
			p.Locale = f.locale
		case "tz":
			p.TimeZone = f.timeZone
		case "bio":
			p.Bio = f.bio
		case "website":
			p.Website = f.website
		case "verified":
			p.Verified = f.verified
		case "birth-year":
			p.BirthYear = f.birthYear
		case "avatar":
			p.AvatarURL = f.avatarURL
		case "phone":
			p.Phone = f.phone
		}
	})
}
