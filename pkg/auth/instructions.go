package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteCookieGuide prints how to copy the li_at cookie out of a browser
func WriteCookieGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "LINKEDIN SESSION COOKIE")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "otwscraper reuses your logged-in LinkedIn session through the li_at cookie.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Log in at https://www.linkedin.com in Chrome, Edge or Firefox.")
	fmt.Fprintln(w, "2. Open the developer tools (F12, or Cmd+Option+I on macOS).")
	fmt.Fprintln(w, "3. Chrome/Edge: Application tab > Cookies > https://www.linkedin.com")
	fmt.Fprintln(w, "   Firefox: Storage tab > Cookies > https://www.linkedin.com")
	fmt.Fprintln(w, "4. Copy the Value column of the row named li_at.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Paste only the value, without quotes and without \"li_at=\".")
	fmt.Fprintln(w, "The cookie lasts about a year but logging out of LinkedIn revokes it.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "WARNING: the cookie grants full access to the account. It is stored in")
	fmt.Fprintln(w, "the system keychain or an encrypted file, never in the config file.")
	fmt.Fprintln(w, "Use an account you can afford to have restricted.")
	fmt.Fprintln(w, rule)
}

// WriteQuickGuide is the one-line reminder shown at the prompt
func WriteQuickGuide(w io.Writer) {
	fmt.Fprintln(w, "F12 > Application/Storage > Cookies > linkedin.com > copy the value of li_at (type 'help' for details)")
}
