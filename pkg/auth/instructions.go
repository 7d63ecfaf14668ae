package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCrawlerAccountHelp explains where crawler API credentials come from and
// how igavail picks them up.
func ShowCrawlerAccountHelp(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "📚 CRAWLER API CREDENTIALS")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Instagram answers anonymous profile requests inconsistently, so")
	fmt.Fprintln(w, "igavail routes checks through the Oxylabs realtime crawler when")
	fmt.Fprintln(w, "credentials are available.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🔑 STEP 1: Create an API user")
	fmt.Fprintln(w, "   - Sign in at https://dashboard.oxylabs.io")
	fmt.Fprintln(w, "   - Open the Web Scraper API product and create an API user")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "💾 STEP 2: Make the credentials available")
	fmt.Fprintln(w, "   • Store them:        igavail auth login")
	fmt.Fprintln(w, "   • Or export them:    OXYLABS_USERNAME / OXYLABS_PASSWORD")
	fmt.Fprintln(w, "   • Or pass per run:   --oxylabs-username / --oxylabs-password")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "⚠️  Without credentials igavail falls back to direct requests,")
	fmt.Fprintln(w, "   which Instagram may rate limit or redirect to a login page.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
}

// ShowSecurityNotice describes where stored credentials end up
func ShowSecurityNotice(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "🔒 Credentials are kept in the system keychain when one is available,")
	fmt.Fprintln(w, "   otherwise in an AES-GCM encrypted file under ~/.config/igavail.")
	fmt.Fprintln(w, "   Set IGAVAIL_PASSPHRASE to control the file encryption key.")
	fmt.Fprintln(w)
}
