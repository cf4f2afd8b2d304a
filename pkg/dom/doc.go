// Package dom defines the document tree abstraction the autofill engine
// operates against. Two backends implement it: memdom, an in-memory tree
// parsed from HTML for dry-runs and tests, and pwdom, a live Chromium page
// driven through Playwright.
//
// Elements are opaque, identity-comparable handles into a tree that the
// hosting page may replace at any time. Callers must re-resolve handles
// rather than cache them across page transitions.
package dom
