// Package confpub publishes HTML content to a Confluence page from a CI
// pipeline. It validates the HTML, writes it as the next page version, and
// prunes old versions so the page history stays within a retention window.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., http/, html/, htmltomarkdown/).
package confpub
