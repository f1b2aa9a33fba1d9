package handlers

import (
	"bytes"
	"html/template"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

const legalUpdated = "2026-02-01"

var legalTemplate = template.Must(template.New("legal").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}"><head><title>{{.Title}} - {{.SiteName}}</title>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>
</head><body>
<h1>{{.Title}}</h1>
<p>{{.Updated}}</p>
{{range .Sections}}<h2>{{.Heading}}</h2>
<p>{{.Body}}</p>
{{end}}<h2>Contact</h2>
<p>For questions about this policy, contact us at {{.Contact}}</p>
</body></html>`))

type legalSection struct {
	Heading string
	Body    string
}

type legalPage struct {
	Lang     string
	Title    string
	SiteName string
	Updated  string
	Contact  string
	Sections []legalSection
}

var legalSections = map[string][]legalSection{
	"privacy": {
		{"Information We Collect", "We collect your email address, display name and the listings you save as favorites to provide our services."},
		{"How We Use Your Information", "Your data is used solely to operate {site}, authenticate your account and send the emails you request, such as confirmation and password reset links."},
		{"Data Storage", "Your data is stored securely on encrypted servers. We do not sell your personal information to third parties."},
		{"Account Deletion", "You can ask us to delete your account and all associated data at any time."},
	},
	"terms": {
		{"Acceptance", "By using {site}, you agree to these terms."},
		{"Listings", "Property information is provided by advertisers. We do not guarantee availability, price or accuracy of any listing."},
		{"Subscriptions", "Premium features require an active subscription. Subscriptions renew automatically unless cancelled before the end of the current period."},
		{"Termination", "We may suspend or terminate accounts that violate these terms."},
	},
	"cookies": {
		{"What We Store", "We store your session tokens and language preference in cookies and local storage so you stay signed in."},
		{"Signing Out", "When you sign out, every session cookie and stored token is removed from your browser."},
		{"Third Parties", "We do not use advertising cookies."},
	},
}

var legalTitles = map[string]string{
	"privacy": "legal.privacy_title",
	"terms":   "legal.terms_title",
	"cookies": "legal.cookies_title",
}

type LegalHandler struct {
	siteName string
	contact  string
}

func NewLegalHandler(siteName, contact string) *LegalHandler {
	return &LegalHandler{siteName: siteName, contact: contact}
}

func (h *LegalHandler) PrivacyPolicy(c *fiber.Ctx) error {
	return h.render(c, "privacy")
}

func (h *LegalHandler) TermsOfService(c *fiber.Ctx) error {
	return h.render(c, "terms")
}

func (h *LegalHandler) CookiePolicy(c *fiber.Ctx) error {
	return h.render(c, "cookies")
}

func (h *LegalHandler) render(c *fiber.Ctx, page string) error {
	loc := dto.Localizer(c)
	sections := make([]legalSection, len(legalSections[page]))
	for i, s := range legalSections[page] {
		sections[i] = legalSection{Heading: s.Heading, Body: strings.ReplaceAll(s.Body, "{site}", h.siteName)}
	}

	var buf bytes.Buffer
	err := legalTemplate.Execute(&buf, legalPage{
		Lang:     loc.Locale,
		Title:    loc.T(legalTitles[page]),
		SiteName: h.siteName,
		Updated:  loc.T("legal.updated", legalUpdated),
		Contact:  h.contact,
		Sections: sections,
	})
	if err != nil {
		slog.Error("legal page render failed", "page", page, "error", err)
		return dto.Fail(c, fiber.StatusInternalServerError, "common.internal")
	}
	return c.Type("html", "utf-8").Send(buf.Bytes())
}
