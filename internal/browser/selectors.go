package browser

// The newspaper site's markup is not known in advance, so element discovery
// works off prioritized, declarative selector lists. Extending coverage for
// a new site layout means appending here, not touching control flow.

// loginTriple is one plausible (username, password, submit) combination.
type loginTriple struct {
	User   string
	Pass   string
	Submit string
}

// loginSelectors is tried in order; the first triple whose three selectors
// all match the page wins.
var loginSelectors = []loginTriple{
	{`input[name="username"]`, `input[name="password"]`, `button[type="submit"]`},
	{`input[name="email"]`, `input[name="password"]`, `button[type="submit"]`},
	{`input[name="user"]`, `input[name="pass"]`, `button[type="submit"]`},
	{`input[id="username"]`, `input[id="password"]`, `button[type="submit"]`},
	{`input[id="email"]`, `input[id="password"]`, `button[type="submit"]`},
	{`input[type="email"]`, `input[type="password"]`, `button[type="submit"]`},
	{`input[type="text"]`, `input[type="password"]`, `button[type="submit"]`},
	{`#login-username`, `#login-password`, `#login-submit`},
	{`.login-username`, `.login-password`, `.login-submit`},
}

// loginErrorSelectors flag a failed submission while still on the login page.
var loginErrorSelectors = []string{
	`.error`,
	`.alert-danger`,
	`.login-error`,
	`[class*="error"]`,
	`[class*="invalid"]`,
}

// downloadSelectors locate the edition's download control, most specific
// first. A plain link scan for ".pdf" hrefs runs after all of these.
var downloadSelectors = []string{
	`a[href$=".pdf"]`,
	`a[download]`,
	`a[href*="download"]`,
	`button[class*="download"]`,
	`a[class*="download"]`,
	`.pdf-download`,
	`#download-pdf`,
	`a[title*="download"]`,
	`a[title*="baixar"]`,
	`button[title*="download"]`,
}

// captchaIndicators fingerprint the two major CAPTCHA providers plus
// generic markers. Any match is a hard stop.
var captchaIndicators = []string{
	// Google reCAPTCHA
	`iframe[src*="recaptcha"]`,
	`iframe[src*="captcha"]`,
	`.g-recaptcha`,
	`#recaptcha`,
	// hCaptcha
	`iframe[src*="hcaptcha"]`,
	`.h-captcha`,
	// Generic; case-insensitive so CAPTCHA/Captcha markup is caught too.
	`img[alt*="captcha" i]`,
	`input[name*="captcha" i]`,
	`[class*="captcha" i]`,
	`[id*="captcha" i]`,
}
