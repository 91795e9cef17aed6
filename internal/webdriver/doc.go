// Package webdriver adapts the W3C WebDriver protocol spoken by geckodriver to
// the four operations a check needs: open a session, navigate, read the
// current URL, and capture a screenshot.
//
// Remote is the production Opener backed by github.com/tebeka/selenium. The
// Session and Opener interfaces let the check pipeline run against doubles.
package webdriver
