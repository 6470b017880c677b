package models

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// SettingsID is the document id of the global settings singleton.
const SettingsID = "global"

// AirRates are USD per kilogram for each air freight category.
type AirRates struct {
	Normal  float64 `json:"normal" bson:"normal"`
	Battery float64 `json:"battery" bson:"battery"`
	Express float64 `json:"express" bson:"express"`
}

// Socials holds public profile links shown in the site footer.
type Socials struct {
	Facebook  string `json:"facebook" bson:"facebook"`
	Instagram string `json:"instagram" bson:"instagram"`
	Twitter   string `json:"twitter" bson:"twitter"`
	LinkedIn  string `json:"linkedin" bson:"linkedin"`
}

// Settings is the global configuration document (config/global).
type Settings struct {
	SiteName           string   `json:"site_name" bson:"site_name"`
	CompanyName        string   `json:"company_name" bson:"company_name"`
	CompanyAddress     string   `json:"company_address" bson:"company_address"`
	CompanyEmail       string   `json:"company_email" bson:"company_email"`
	CompanyPhone       string   `json:"company_phone" bson:"company_phone"`
	ContactEmail       string   `json:"contact_email" bson:"contact_email"`
	WhatsappNumber     string   `json:"whatsapp_number" bson:"whatsapp_number"`
	ShopWhatsapp       string   `json:"shop_whatsapp" bson:"shop_whatsapp"`
	SeaRate            float64  `json:"sea_rate" bson:"sea_rate"` // USD per CBM
	AirRates           AirRates `json:"air_rates" bson:"air_rates"`
	NextLoadingDate    string   `json:"next_loading_date" bson:"next_loading_date"`
	ChinaSeaAddr       string   `json:"china_sea_addr" bson:"china_sea_addr"`
	ChinaAirAddr       string   `json:"china_air_addr" bson:"china_air_addr"`
	CurrencyRate       float64  `json:"currency_rate" bson:"currency_rate"` // GHS per USD
	BankName           string   `json:"bank_name" bson:"bank_name"`
	AccountName        string   `json:"account_name" bson:"account_name"`
	AccountNumber      string   `json:"account_number" bson:"account_number"`
	TermsAndConditions string   `json:"terms_and_conditions" bson:"terms_and_conditions"`
	FooterText         string   `json:"footer_text" bson:"footer_text"`
	Logo               string   `json:"logo" bson:"logo"` // data URL
	PrimaryColor       string   `json:"primary_color" bson:"primary_color"`
	HeroTitle          string   `json:"hero_title" bson:"hero_title"`
	HeroSubtitle       string   `json:"hero_subtitle" bson:"hero_subtitle"`
	TrackingDomain     string   `json:"tracking_domain" bson:"tracking_domain"`
	Socials            Socials  `json:"socials" bson:"socials"`
}

// DefaultSettings returns the values used until the stored document says otherwise.
func DefaultSettings() Settings {
	return Settings{
		SiteName:           "Jay-Besin Logistics",
		CompanyName:        "JayBesin Logistics",
		CompanyAddress:     "Cargo Village, KIA, Accra, Ghana",
		CompanyEmail:       "accounts@jaybesin.com",
		CompanyPhone:       "+233 24 412 3456",
		ContactEmail:       "info@jaybesin.com",
		SeaRate:            450,
		AirRates:           AirRates{Normal: 12},
		CurrencyRate:       15.8,
		BankName:           "Ecobank Ghana",
		AccountName:        "JayBesin Logistics Ltd",
		AccountNumber:      "1441000123456",
		TermsAndConditions: "Freight charges must be paid in full before cargo release.",
		FooterText:         "Thank you for shipping with JayBesin Logistics.",
		PrimaryColor:       "#2563eb",
		TrackingDomain:     "jaybesin.com",
	}
}

// SettingsPatch names the settings fields an admin wants to change. Nil
// fields are left untouched in the stored document.
type SettingsPatch struct {
	SiteName       *string  `json:"site_name"`
	CompanyName    *string  `json:"company_name"`
	CompanyAddress *string  `json:"company_address"`
	CompanyEmail   *string  `json:"company_email"`
	CompanyPhone   *string  `json:"company_phone"`
	ContactEmail   *string  `json:"contact_email"`
	WhatsappNumber *string  `json:"whatsapp_number"`
	ShopWhatsapp   *string  `json:"shop_whatsapp"`
	SeaRate        *float64 `json:"sea_rate"`
	AirRates       *struct {
		Normal  *float64 `json:"normal"`
		Battery *float64 `json:"battery"`
		Express *float64 `json:"express"`
	} `json:"air_rates"`
	NextLoadingDate    *string  `json:"next_loading_date"`
	ChinaSeaAddr       *string  `json:"china_sea_addr"`
	ChinaAirAddr       *string  `json:"china_air_addr"`
	CurrencyRate       *float64 `json:"currency_rate"`
	BankName           *string  `json:"bank_name"`
	AccountName        *string  `json:"account_name"`
	AccountNumber      *string  `json:"account_number"`
	TermsAndConditions *string  `json:"terms_and_conditions"`
	FooterText         *string  `json:"footer_text"`
	Logo               *string  `json:"logo"`
	PrimaryColor       *string  `json:"primary_color"`
	HeroTitle          *string  `json:"hero_title"`
	HeroSubtitle       *string  `json:"hero_subtitle"`
	TrackingDomain     *string  `json:"tracking_domain"`
	Socials            *struct {
		Facebook  *string `json:"facebook"`
		Instagram *string `json:"instagram"`
		Twitter   *string `json:"twitter"`
		LinkedIn  *string `json:"linkedin"`
	} `json:"socials"`
}

var (
	ErrInvalidCurrencyRate = errors.New("currency rate must be greater than zero")
	ErrNegativeRate        = errors.New("freight rates cannot be negative")
)

// Validate rejects values that would break quotes or documents.
func (p SettingsPatch) Validate() error {
	if p.CurrencyRate != nil && *p.CurrencyRate <= 0 {
		return ErrInvalidCurrencyRate
	}
	if p.SeaRate != nil && *p.SeaRate < 0 {
		return ErrNegativeRate
	}
	if p.AirRates != nil {
		for _, r := range []*float64{p.AirRates.Normal, p.AirRates.Battery, p.AirRates.Express} {
			if r != nil && *r < 0 {
				return ErrNegativeRate
			}
		}
	}
	return nil
}

// Fields flattens the patch into $set keys. Nested values use dotted paths so
// a partial air_rates or socials update does not wipe its siblings.
func (p SettingsPatch) Fields() bson.M {
	m := bson.M{}
	put(m, "site_name", p.SiteName)
	put(m, "company_name", p.CompanyName)
	put(m, "company_address", p.CompanyAddress)
	put(m, "company_email", p.CompanyEmail)
	put(m, "company_phone", p.CompanyPhone)
	put(m, "contact_email", p.ContactEmail)
	put(m, "whatsapp_number", p.WhatsappNumber)
	put(m, "shop_whatsapp", p.ShopWhatsapp)
	put(m, "sea_rate", p.SeaRate)
	put(m, "next_loading_date", p.NextLoadingDate)
	put(m, "china_sea_addr", p.ChinaSeaAddr)
	put(m, "china_air_addr", p.ChinaAirAddr)
	put(m, "currency_rate", p.CurrencyRate)
	put(m, "bank_name", p.BankName)
	put(m, "account_name", p.AccountName)
	put(m, "account_number", p.AccountNumber)
	put(m, "terms_and_conditions", p.TermsAndConditions)
	put(m, "footer_text", p.FooterText)
	put(m, "logo", p.Logo)
	put(m, "primary_color", p.PrimaryColor)
	put(m, "hero_title", p.HeroTitle)
	put(m, "hero_subtitle", p.HeroSubtitle)
	put(m, "tracking_domain", p.TrackingDomain)
	if p.AirRates != nil {
		put(m, "air_rates.normal", p.AirRates.Normal)
		put(m, "air_rates.battery", p.AirRates.Battery)
		put(m, "air_rates.express", p.AirRates.Express)
	}
	if p.Socials != nil {
		put(m, "socials.facebook", p.Socials.Facebook)
		put(m, "socials.instagram", p.Socials.Instagram)
		put(m, "socials.twitter", p.Socials.Twitter)
		put(m, "socials.linkedin", p.Socials.LinkedIn)
	}
	return m
}

func put[T any](m bson.M, key string, v *T) {
	if v != nil {
		m[key] = *v
	}
}
