package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockedResourceTypes lists resource kinds that never contribute to the
// product listing DOM. Skipping them cuts page weight and render time
// dramatically on image-heavy storefront pages.
var blockedResourceTypes = map[proto.NetworkResourceType]bool{
	proto.NetworkResourceTypeImage:      true,
	proto.NetworkResourceTypeMedia:      true,
	proto.NetworkResourceTypeFont:       true,
	proto.NetworkResourceTypeStylesheet: true,
}

// trackerDomains are third-party analytics and ad hosts commonly embedded
// by Brazilian storefronts. Their scripts slow DOM stabilisation and some
// feed bot-detection vendors, so requests to them are dropped outright.
var trackerDomains = []string{
	"doubleclick.net",
	"googlesyndication.com",
	"googletagmanager.com",
	"google-analytics.com",
	"googleadservices.com",
	"facebook.net",
	"facebook.com/tr",
	"hotjar.com",
	"clarity.ms",
	"criteo.com",
	"criteo.net",
	"taboola.com",
	"outbrain.com",
	"scorecardresearch.com",
	"amazon-adsystem.com",
	"adnxs.com",
	"rtbhouse.com",
	"dynamicyield.com",
	"salesforceliveagent.com",
	"zendesk.com",
	"chaordicsystems.com",
	"linximpulse.com",
}

// setupHijack mounts a request router on the page that drops heavy and
// tracking traffic before it leaves the browser. Must be called before
// navigation. Returns the router so the caller can Stop it; returns nil
// if the router could not be mounted (the page still works, just slower).
func setupHijack(page *rod.Page) *rod.HijackRouter {
	router := page.HijackRequests()

	err := router.Add("*", "", func(ctx *rod.Hijack) {
		if blockedResourceTypes[ctx.Request.Type()] {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		reqURL := ctx.Request.URL().String()
		for _, domain := range trackerDomains {
			if strings.Contains(reqURL, domain) {
				ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return nil
	}

	go router.Run()
	return router
}
