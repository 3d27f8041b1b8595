// Package htmldom implements the platform page interfaces over an in-memory
// HTML tree parsed with golang.org/x/net/html. Element selection uses goquery.
//
// Mutations made through Document.Insert are reported to subscribers, the
// way a browser's mutation observer reports them. The package's own
// mutations (wrapping, the overlay) are not reported.
package htmldom
