// Package review provides the Review aggregate recorded after a delivery and
// the error kinds of the review gate.
package review
