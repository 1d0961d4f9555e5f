// Package fetch - platform.go provides platform detection and platform-specific selectors.
package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known e-commerce or social platform.
type Platform string

const (
	// PlatformTikTok is the TikTok short-video platform
	PlatformTikTok Platform = "tiktok"
	// PlatformAmazon is the Amazon marketplace
	PlatformAmazon Platform = "amazon"
	// PlatformAliExpress is the AliExpress marketplace
	PlatformAliExpress Platform = "aliexpress"
	// PlatformAlibaba is the Alibaba wholesale marketplace
	PlatformAlibaba Platform = "alibaba"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the source platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)

	if strings.Contains(host, "tiktok.com") {
		return PlatformTikTok
	}

	if strings.Contains(host, "amazon.") {
		return PlatformAmazon
	}

	if strings.Contains(host, "aliexpress.") {
		return PlatformAliExpress
	}

	if strings.Contains(host, "alibaba.com") || strings.Contains(host, "1688.com") {
		return PlatformAlibaba
	}

	return PlatformUnknown
}

// PlatformContentSelectors returns content selectors optimized for a specific platform.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformTikTok:
		return VideoPageSelectors()
	case PlatformAmazon:
		return []string{
			"#productDescription",
			"#feature-bullets",
			"#dpx-product-description_feature_div",
			"#centerCol",
			"main",
		}
	case PlatformAliExpress:
		return []string{
			".product-description",
			".detail-desc-decorate-richtext",
			"#product-description",
			"main",
		}
	case PlatformAlibaba:
		return []string{
			".module-pdp-description",
			".do-entry-list",
			".product-description",
			"main",
		}
	default:
		return ProductPageSelectors()
	}
}

// PlatformNoiseSelectors returns noise exclusion selectors for a specific platform.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		// Reviews and Q&A blocks dilute the product signal
		".reviews",
		".review-section",
		"#reviews",
		".qa-section",

		// Recommendation carousels
		".recommendations",
		".related-products",
		".you-may-also-like",

		// Cookie and GDPR
		".cookie-banner",
		".cookie-consent",
		".gdpr-notice",
	}

	switch platform {
	case PlatformAmazon:
		return append(common,
			"#similarities_feature_div",
			"#sims-consolidated-2_feature_div",
			"#customer-reviews_feature_div",
			"#ask-btf_feature_div",
		)
	case PlatformAliExpress:
		return append(common,
			".recommend-card",
			".feedback-list",
		)
	case PlatformTikTok:
		return append(common,
			".comment-list",
			"[data-e2e='comment-list']",
		)
	default:
		return common
	}
}
